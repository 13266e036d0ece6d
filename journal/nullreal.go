package journal

import (
	"database/sql/driver"
	"fmt"
	"math"
)

// nullReal maps NaN and infinities to SQL NULL and back to NaN.
type nullReal float64

func (r nullReal) Value() (driver.Value, error) {
	f := float64(r)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nil
	}
	return f, nil
}

func (r *nullReal) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = nullReal(math.NaN())
	case float64:
		*r = nullReal(v)
	case int64:
		*r = nullReal(v)
	default:
		return fmt.Errorf("journal: cannot scan %T into a float", src)
	}
	return nil
}
