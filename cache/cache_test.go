package cache

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestLoadsOnce(t *testing.T) {
	is := is.New(t)
	loads := 0
	c := New("squares", func(k int) (int, error) {
		loads++
		return k * k, nil
	})
	v, err := c.Get(4)
	is.NoErr(err)
	is.Equal(v, 16)
	v, err = c.Get(4)
	is.NoErr(err)
	is.Equal(v, 16)
	is.Equal(loads, 1)
	is.Equal(c.Len(), 1)

	c.Clear()
	is.Equal(c.Len(), 0)
	_, err = c.Get(4)
	is.NoErr(err)
	is.Equal(loads, 2)
}

func TestFailedLoadIsNotCached(t *testing.T) {
	is := is.New(t)
	fail := true
	c := New("flaky", func(k string) (string, error) {
		if fail {
			return "", errors.New("boom")
		}
		return k, nil
	})
	_, err := c.Get("a")
	is.True(err != nil)
	is.Equal(c.Len(), 0)
	fail = false
	v, err := c.Get("a")
	is.NoErr(err)
	is.Equal(v, "a")
}
