package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"pc-volume-bridge/internal/domain"
	"pc-volume-bridge/internal/logging"
)

// ButtonState is the state of one nudge button.
type ButtonState int

const (
	ButtonIdle ButtonState = iota
	ButtonAdjusting
)

func (s ButtonState) String() string {
	if s == ButtonAdjusting {
		return "adjusting"
	}
	return "idle"
}

type nudgeButton struct {
	kind  domain.ServiceKind
	delta int
	char  domain.BoolCharacteristic

	state ButtonState
	timer Timer
	// generation identifies the latest arming; stale timer callbacks compare and bail out.
	generation uint64
}

// NudgeController implements the increase/decrease volume buttons. A press
// moves the volume by a fixed delta and the button switches itself off again
// after the configured delay.
type NudgeController struct {
	gateway   *AudioGateway
	algorithm domain.VolumeAlgorithm
	delta     int
	delay     time.Duration
	clock     Clock
	log       *logging.Logger

	display func(homeKit int)

	mu      sync.Mutex
	buttons map[domain.ServiceKind]*nudgeButton
}

// NewNudgeController creates a controller for the buttons of one accessory.
func NewNudgeController(gateway *AudioGateway, algorithm domain.VolumeAlgorithm, cfg domain.NudgeConfig, clock Clock, log *logging.Logger) *NudgeController {
	if clock == nil {
		clock = RealClock()
	}
	return &NudgeController{
		gateway:   gateway,
		algorithm: algorithm,
		delta:     cfg.Delta,
		delay:     cfg.Delay,
		clock:     clock,
		log:       log.With("nudge"),
		buttons:   make(map[domain.ServiceKind]*nudgeButton),
	}
}

// OnDisplay registers the optimistic display update run before each volume write.
func (n *NudgeController) OnDisplay(fn func(homeKit int)) {
	n.display = fn
}

// Bind turns the On characteristic of binding's service into a nudge button.
// The direction follows the service kind.
func (n *NudgeController) Bind(binding *ServiceBinding) error {
	kind := binding.Service().Kind()
	var delta int
	switch kind {
	case domain.ServiceIncreaseButton:
		delta = n.delta
	case domain.ServiceDecreaseButton:
		delta = -n.delta
	default:
		return fmt.Errorf("%w: %s is not a button", domain.ErrUnsupportedCharacteristic, kind)
	}

	btn := &nudgeButton{kind: kind, delta: delta}
	c, err := binding.BindBoolean(domain.CharacteristicOn,
		func(context.Context) (bool, error) {
			return false, nil
		},
		func(ctx context.Context, on bool) error {
			return n.press(ctx, btn, on)
		},
	)
	if err != nil {
		return err
	}
	btn.char = c

	n.mu.Lock()
	n.buttons[kind] = btn
	n.mu.Unlock()
	return nil
}

// State returns the state of the button of the given kind.
func (n *NudgeController) State(kind domain.ServiceKind) ButtonState {
	n.mu.Lock()
	defer n.mu.Unlock()
	if btn, ok := n.buttons[kind]; ok {
		return btn.state
	}
	return ButtonIdle
}

func (n *NudgeController) press(ctx context.Context, btn *nudgeButton, on bool) error {
	if !on {
		return nil
	}

	n.mu.Lock()
	btn.state = ButtonAdjusting
	n.mu.Unlock()

	n.log.Debugf("Adjusting volume by %+d%%", btn.delta)
	if _, err := n.Adjust(ctx, btn.delta); err != nil {
		n.log.Errorf("Failed to adjust volume: %v", err)
		n.mu.Lock()
		btn.state = ButtonIdle
		n.mu.Unlock()
	} else {
		n.log.Debugf("Successfully adjusted volume")
	}
	n.arm(btn)
	return nil
}

// arm schedules the button to switch off, replacing any earlier pending reset.
func (n *NudgeController) arm(btn *nudgeButton) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if btn.timer != nil {
		btn.timer.Stop()
	}
	btn.generation++
	gen := btn.generation
	btn.timer = n.clock.AfterFunc(n.delay, func() {
		n.mu.Lock()
		if btn.generation != gen {
			n.mu.Unlock()
			return
		}
		btn.timer = nil
		btn.state = ButtonIdle
		n.mu.Unlock()

		btn.char.UpdateValue(false)
		n.log.Tracef("Switched %s off", btn.kind)
	})
}

// Stop cancels pending button resets.
func (n *NudgeController) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, btn := range n.buttons {
		if btn.timer != nil {
			btn.timer.Stop()
			btn.timer = nil
		}
		btn.generation++
	}
}

// Adjust moves the volume by delta home-automation percent and returns the
// displayed target. When the curve cannot represent the step at the current
// position the system volume is moved by one unit in delta's direction
// instead, so every press is audible unless the volume is already at the limit.
func (n *NudgeController) Adjust(ctx context.Context, delta int) (int, error) {
	current, err := n.gateway.Volume(ctx)
	if err != nil {
		return 0, err
	}
	homeKit := n.algorithm.ToHomeKit(current)
	candidate := int(domain.Clamp(float64(homeKit + delta)))
	n.log.Debugf("Current volume %d%%, adjusted to %d%%", homeKit, candidate)

	if n.display != nil {
		n.display(candidate)
	}

	target := n.algorithm.ToSystem(float64(candidate))
	if !n.gateway.Cached() && math.Round(target) == math.Round(current) {
		switch {
		case delta > 0:
			target = math.Round(current) + 1
		case delta < 0:
			target = math.Round(current) - 1
		}
		target = domain.Clamp(target)
		n.log.Debugf("Step not representable, moving system volume to %.0f%%", target)
	}

	if err := n.gateway.SetVolume(ctx, target); err != nil {
		n.log.Warnf("Displayed volume %d%% was not applied", candidate)
		return candidate, err
	}
	return candidate, nil
}
