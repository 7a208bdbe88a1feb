package remote

import (
	"errors"
	"fmt"
)

var errNotFinite = errors.New("value is not finite")

func errWrongFieldCount(n int) error {
	return fmt.Errorf("expected exactly one value, got %d", n)
}
