package models

import (
	"database/sql/driver"

	"github.com/lib/pq"
)

// FactorList is the ordered list of fraud factor codes stored on a round.
// An unreadable stored value scans as an empty list instead of failing the row.
type FactorList []string

func (f *FactorList) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		*f = FactorList{}
		return nil
	}
	out := make(FactorList, 0, len(arr))
	for _, code := range arr {
		if code != "" {
			out = append(out, code)
		}
	}
	*f = out
	return nil
}

func (f FactorList) Value() (driver.Value, error) {
	if f == nil {
		return pq.StringArray{}.Value()
	}
	return pq.StringArray(f).Value()
}

func (f FactorList) Contains(code string) bool {
	for _, c := range f {
		if c == code {
			return true
		}
	}
	return false
}
