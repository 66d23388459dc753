package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/iudanet/syncstore/internal/client/database"
	"github.com/iudanet/syncstore/internal/codec"
	"github.com/iudanet/syncstore/internal/validation"
)

// Типы значений, которые можно задать из командной строки
const (
	TypeAuto   = "auto"
	TypeString = "string"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
	TypeJSON   = "json"
)

// typeOf maps a stored type descriptor back to a command line type
func typeOf(descriptor string) string {
	switch descriptor {
	case codec.TypeName[string]():
		return TypeString
	case codec.TypeName[int]():
		return TypeInt
	case codec.TypeName[float64]():
		return TypeFloat
	case codec.TypeName[bool]():
		return TypeBool
	case codec.TypeName[json.RawMessage]():
		return TypeJSON
	}
	return ""
}

// detectType guesses the type of text: integers, booleans and numbers are
// stored as such, anything else as a string
func detectType(text string) string {
	if _, err := strconv.Atoi(text); err == nil {
		return TypeInt
	}
	if text == "true" || text == "false" {
		return TypeBool
	}
	if _, err := strconv.ParseFloat(text, 64); err == nil {
		return TypeFloat
	}
	return TypeString
}

// format renders stored bytes for the console
func format(data []byte, descriptor string) string {
	if descriptor == codec.TypeName[string]() {
		return strconv.Quote(string(data))
	}
	return string(data)
}

func (c *Cli) runGet(ctx context.Context, dbID, valueID string) error {
	if err := validation.ValidateValueID(valueID); err != nil {
		return err
	}
	d, err := c.orch.Database(ctx, dbID)
	if err != nil {
		return err
	}
	c.settle(ctx)

	data, descriptor, ok := d.Raw(valueID)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrValueNotFound, dbID, valueID)
	}
	c.io.Printf("%s (%s)\n", format(data, descriptor), descriptor)
	return nil
}

func (c *Cli) runSet(ctx context.Context, dbID, valueID, text, typ string) error {
	if err := validation.ValidateValueID(valueID); err != nil {
		return err
	}
	d, err := c.orch.Database(ctx, dbID)
	if err != nil {
		return err
	}
	c.settle(ctx)

	if typ == "" || typ == TypeAuto {
		typ = detectType(text)
		if _, descriptor, ok := d.Raw(valueID); ok && typeOf(descriptor) != "" {
			typ = typeOf(descriptor)
		}
	}

	switch typ {
	case TypeString:
		err = setAndWait(ctx, d, valueID, text, c.opts.Timeout)
	case TypeInt:
		var n int
		if n, err = strconv.Atoi(text); err == nil {
			err = setAndWait(ctx, d, valueID, n, c.opts.Timeout)
		}
	case TypeFloat:
		var f float64
		if f, err = strconv.ParseFloat(text, 64); err == nil {
			err = setAndWait(ctx, d, valueID, f, c.opts.Timeout)
		}
	case TypeBool:
		var b bool
		if b, err = strconv.ParseBool(text); err == nil {
			err = setAndWait(ctx, d, valueID, b, c.opts.Timeout)
		}
	case TypeJSON:
		if !json.Valid([]byte(text)) {
			return fmt.Errorf("invalid JSON value: %s", text)
		}
		err = setAndWait(ctx, d, valueID, json.RawMessage(text), c.opts.Timeout)
	default:
		return fmt.Errorf("unknown value type %q", typ)
	}

	switch {
	case errors.Is(err, database.ErrNotConnected):
		c.io.Println("Stored locally, will be sent on the next connection")
		return nil
	case err != nil:
		return err
	}
	c.io.Printf("%s/%s = %s\n", dbID, valueID, text)
	return nil
}

// setAndWait writes value and waits until the server has ordered the write
func setAndWait[T any](ctx context.Context, d *database.Database, valueID string, value T, timeout time.Duration) error {
	v, err := database.Get[T](d, valueID)
	if err != nil {
		return err
	}

	confirmed := make(chan struct{}, 1)
	err = v.ModifyConfirmed(func(T) T { return value }, func(T) {
		select {
		case confirmed <- struct{}{}:
		default:
		}
	})
	if err != nil || !d.Synchronised() {
		return err
	}

	select {
	case <-confirmed:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("failed to confirm %s: %w", valueID, database.ErrTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Cli) runDelete(ctx context.Context, dbID string) error {
	err := c.orch.Delete(ctx, dbID)
	if errors.Is(err, database.ErrNotConnected) {
		c.io.Println("Deleted locally; other peers keep their copy until the server is told")
		return nil
	}
	if err != nil {
		return err
	}
	c.io.Printf("Database %s deleted\n", dbID)
	return nil
}
