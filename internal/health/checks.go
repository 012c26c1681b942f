package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WritableDir reports whether files can be created in dir. The asset caches
// write there on every new illustration or narration clip.
func WritableDir(name, dir string) Checker {
	return Checker{
		Name: name,
		Check: func(context.Context) error {
			f, err := os.CreateTemp(dir, ".probe-*")
			if err != nil {
				return err
			}
			path := f.Name()
			return errors.Join(f.Close(), os.Remove(filepath.Clean(path)))
		},
	}
}

// AnyAvailable passes when at least one of the named backends returned by
// states is usable. Each state value is compared against blocked; typically
// states is a fallback group's breaker map rendered as strings.
func AnyAvailable(name string, states func() map[string]string, blocked string) Checker {
	return Checker{
		Name: name,
		Check: func(context.Context) error {
			s := states()
			if len(s) == 0 {
				return errors.New("no providers configured")
			}
			for _, st := range s {
				if st != blocked {
					return nil
				}
			}
			return fmt.Errorf("all %d providers %s", len(s), blocked)
		},
	}
}
