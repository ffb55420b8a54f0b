// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a player", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Exchange credentials for a bearer token", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/courses": {"post": {"tags": ["courses"], "summary": "Create a course with its hole layout", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}},
        "/courses/{courseID}": {"get": {"tags": ["courses"], "summary": "Get a course", "parameters": [{"name": "courseID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/rounds": {"post": {"tags": ["rounds"], "summary": "Tee off a new round", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}},
        "/rounds/{roundID}": {"get": {"tags": ["rounds"], "summary": "Get a round with its hole scores and attestations", "parameters": [{"name": "roundID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/rounds/{roundID}/holes/{holeNumber}": {"put": {"tags": ["rounds"], "summary": "Record or overwrite a hole score on an open round", "security": [{"BearerAuth": []}], "parameters": [{"name": "roundID", "in": "path", "required": true, "type": "integer"}, {"name": "holeNumber", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/rounds/{roundID}/complete": {"post": {"tags": ["rounds"], "summary": "Complete a round and score it", "security": [{"BearerAuth": []}], "parameters": [{"name": "roundID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/rounds/{roundID}/rescore": {"post": {"tags": ["rounds"], "summary": "Correct hole scores on a completed round and re-evaluate it", "security": [{"BearerAuth": []}], "parameters": [{"name": "roundID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/rounds/{roundID}/scorecard": {"post": {"tags": ["rounds"], "summary": "Attach a photo of the signed paper scorecard", "consumes": ["multipart/form-data"], "security": [{"BearerAuth": []}], "parameters": [{"name": "roundID", "in": "path", "required": true, "type": "integer"}, {"name": "scorecard", "in": "formData", "required": true, "type": "file"}], "responses": {"200": {"description": "OK"}}}},
        "/rounds/{roundID}/attestations": {"post": {"tags": ["attestations"], "summary": "Ask another player to vouch for a completed round", "security": [{"BearerAuth": []}], "parameters": [{"name": "roundID", "in": "path", "required": true, "type": "integer"}], "responses": {"201": {"description": "Created"}, "403": {"description": "self_attestation"}, "409": {"description": "duplicate_attestation"}, "422": {"description": "round_not_completed"}}}},
        "/attestations/pending": {"get": {"tags": ["attestations"], "summary": "Attestations waiting on the current player", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/attestations/{attestationID}/respond": {"post": {"tags": ["attestations"], "summary": "Approve or reject a pending attestation", "security": [{"BearerAuth": []}], "parameters": [{"name": "attestationID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}, "409": {"description": "already_responded"}}}},
        "/players/{playerID}/handicap": {"get": {"tags": ["players"], "summary": "Handicap summary, optionally with course and playing handicap", "parameters": [{"name": "playerID", "in": "path", "required": true, "type": "integer"}, {"name": "course_id", "in": "query", "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/players/{playerID}/rounds": {"get": {"tags": ["players"], "summary": "A player's rounds, most recent first", "parameters": [{"name": "playerID", "in": "path", "required": true, "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}], "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Handicap System API",
	Description:      "Golf handicap tracking with score differentials, fraud scoring and peer attestation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
