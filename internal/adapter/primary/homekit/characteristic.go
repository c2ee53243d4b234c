package homekit

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/brutella/hap/characteristic"

	"pc-volume-bridge/internal/domain"
	"pc-volume-bridge/internal/logging"
)

const (
	statusSuccess = 0
	// statusCommunicationFailure is HAP's "service communication failure".
	statusCommunicationFailure = -70402
)

func requestContext(req *http.Request) context.Context {
	if req == nil {
		return context.Background()
	}
	return req.Context()
}

// boolChar adapts a HAP bool characteristic (On, Mute) to domain.BoolCharacteristic.
type boolChar struct {
	b *characteristic.Bool
}

func (c *boolChar) HandleGet(fn func(ctx context.Context) (bool, error)) {
	c.b.ValueRequestFunc = func(req *http.Request) (interface{}, int) {
		v, err := fn(requestContext(req))
		if err != nil {
			return nil, statusCommunicationFailure
		}
		// hap skips writes equal to the stored value, so keep it current
		c.UpdateValue(v)
		return v, statusSuccess
	}
}

func (c *boolChar) HandleSet(fn func(ctx context.Context, v bool) error) {
	c.b.SetValueRequestFunc = func(value interface{}, req *http.Request) (interface{}, int) {
		// local updates are not requests
		if req == nil {
			return nil, statusSuccess
		}
		v, ok := value.(bool)
		if !ok {
			return nil, statusCommunicationFailure
		}
		if err := fn(req.Context(), v); err != nil {
			return nil, statusCommunicationFailure
		}
		return nil, statusSuccess
	}
}

func (c *boolChar) UpdateValue(v bool) {
	c.b.SetValue(v)
}

func (c *boolChar) Value() bool {
	return c.b.Value()
}

// numberChar adapts a HAP percentage characteristic. Volume and Brightness
// are integers, RotationSpeed is a float.
type numberChar struct {
	c   *characteristic.C
	i   *characteristic.Int
	f   *characteristic.Float
	log *logging.Logger
}

func intChar(i *characteristic.Int, log *logging.Logger) *numberChar {
	return &numberChar{c: i.C, i: i, log: log}
}

func floatChar(f *characteristic.Float, log *logging.Logger) *numberChar {
	return &numberChar{c: f.C, f: f, log: log}
}

func (c *numberChar) HandleGet(fn func(ctx context.Context) (int, error)) {
	c.c.ValueRequestFunc = func(req *http.Request) (interface{}, int) {
		v, err := fn(requestContext(req))
		if err != nil {
			return nil, statusCommunicationFailure
		}
		c.UpdateValue(v)
		if c.f != nil {
			return float64(v), statusSuccess
		}
		return v, statusSuccess
	}
}

func (c *numberChar) HandleSet(fn func(ctx context.Context, v int) error) {
	c.c.SetValueRequestFunc = func(value interface{}, req *http.Request) (interface{}, int) {
		if req == nil {
			return nil, statusSuccess
		}
		v, err := toPercent(value)
		if err != nil {
			return nil, statusCommunicationFailure
		}
		if err := fn(req.Context(), v); err != nil {
			return nil, statusCommunicationFailure
		}
		return nil, statusSuccess
	}
}

func (c *numberChar) UpdateValue(v int) {
	if c.f != nil {
		c.f.SetValue(float64(v))
		return
	}
	c.reportRejected(v, c.i.SetValue(v))
}

func (c *numberChar) reportRejected(v int, err error) {
	if err != nil {
		c.log.Warnf("Display of %d%% rejected: %v", v, err)
	}
}

func (c *numberChar) Value() int {
	if c.f != nil {
		return int(math.Round(c.f.Value()))
	}
	return c.i.Value()
}

// toPercent converts a decoded characteristic value to a whole percentage.
func toPercent(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint8:
		return int(v), nil
	case float32:
		return int(math.Round(float64(v))), nil
	case float64:
		return int(math.Round(v)), nil
	default:
		return 0, fmt.Errorf("%w: unexpected value %v (%T)", domain.ErrUnsupportedCharacteristic, value, value)
	}
}

var (
	_ domain.BoolCharacteristic   = (*boolChar)(nil)
	_ domain.NumberCharacteristic = (*numberChar)(nil)
)
