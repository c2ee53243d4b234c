package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"pc-volume-bridge/internal/domain"
)

var errOffline = errors.New("audio device offline")

// ---------------------------------------------------------------------------
// fakeAudio: stateful controller with call counters and injectable failures
// ---------------------------------------------------------------------------

type fakeAudio struct {
	mu           sync.Mutex
	volume       int
	muted        bool
	volumeReads  int
	volumeWrites []int
	mutedWrites  []bool

	failGetVolume error
	failSetVolume error
	failGetMuted  error
	failSetMuted  error
}

func newFakeAudio(volume int, muted bool) *fakeAudio {
	return &fakeAudio{volume: volume, muted: muted}
}

func (f *fakeAudio) Volume(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumeReads++
	if f.failGetVolume != nil {
		return 0, f.failGetVolume
	}
	return f.volume, nil
}

func (f *fakeAudio) SetVolume(_ context.Context, v int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSetVolume != nil {
		return f.failSetVolume
	}
	f.volume = v
	f.volumeWrites = append(f.volumeWrites, v)
	return nil
}

func (f *fakeAudio) Muted(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGetMuted != nil {
		return false, f.failGetMuted
	}
	return f.muted, nil
}

func (f *fakeAudio) SetMuted(_ context.Context, m bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSetMuted != nil {
		return f.failSetMuted
	}
	f.muted = m
	f.mutedWrites = append(f.mutedWrites, m)
	return nil
}

func (f *fakeAudio) currentVolume() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

func (f *fakeAudio) reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volumeReads
}

// ---------------------------------------------------------------------------
// mockAudio: testify mock for call expectations
// ---------------------------------------------------------------------------

type mockAudio struct{ mock.Mock }

func (m *mockAudio) Volume(ctx context.Context) (int, error) {
	ret := m.Called(ctx)
	return ret.Int(0), ret.Error(1)
}

func (m *mockAudio) SetVolume(ctx context.Context, v int) error {
	return m.Called(ctx, v).Error(0)
}

func (m *mockAudio) Muted(ctx context.Context) (bool, error) {
	ret := m.Called(ctx)
	return ret.Bool(0), ret.Error(1)
}

func (m *mockAudio) SetMuted(ctx context.Context, muted bool) error {
	return m.Called(ctx, muted).Error(0)
}

// ---------------------------------------------------------------------------
// fake bridge: services and characteristics
// ---------------------------------------------------------------------------

type fakeBool struct {
	mu    sync.Mutex
	value bool
	get   func(context.Context) (bool, error)
	set   func(context.Context, bool) error
}

func (c *fakeBool) HandleGet(fn func(context.Context) (bool, error)) { c.get = fn }
func (c *fakeBool) HandleSet(fn func(context.Context, bool) error)   { c.set = fn }

func (c *fakeBool) UpdateValue(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
}

func (c *fakeBool) Value() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Read simulates a remote read.
func (c *fakeBool) Read(ctx context.Context) (bool, error) {
	return c.get(ctx)
}

// Write simulates a remote write: the stored value follows the request when
// the handler accepts it.
func (c *fakeBool) Write(ctx context.Context, v bool) error {
	if err := c.set(ctx, v); err != nil {
		return err
	}
	c.UpdateValue(v)
	return nil
}

type fakeNumber struct {
	mu    sync.Mutex
	value int
	get   func(context.Context) (int, error)
	set   func(context.Context, int) error
}

func (c *fakeNumber) HandleGet(fn func(context.Context) (int, error)) { c.get = fn }
func (c *fakeNumber) HandleSet(fn func(context.Context, int) error)   { c.set = fn }

func (c *fakeNumber) UpdateValue(v int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
}

func (c *fakeNumber) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (c *fakeNumber) Read(ctx context.Context) (int, error) {
	return c.get(ctx)
}

func (c *fakeNumber) Write(ctx context.Context, v int) error {
	if err := c.set(ctx, v); err != nil {
		return err
	}
	c.UpdateValue(v)
	return nil
}

type fakeService struct {
	kind    domain.ServiceKind
	name    string
	bools   map[domain.CharacteristicKind]*fakeBool
	numbers map[domain.CharacteristicKind]*fakeNumber
}

func newFakeService(kind domain.ServiceKind, name string) *fakeService {
	s := &fakeService{
		kind:    kind,
		name:    name,
		bools:   make(map[domain.CharacteristicKind]*fakeBool),
		numbers: make(map[domain.CharacteristicKind]*fakeNumber),
	}
	switch kind {
	case domain.ServiceSpeaker:
		s.bools[domain.CharacteristicMute] = &fakeBool{}
		s.numbers[domain.CharacteristicVolume] = &fakeNumber{}
	case domain.ServiceFan:
		s.bools[domain.CharacteristicOn] = &fakeBool{}
		s.numbers[domain.CharacteristicRotationSpeed] = &fakeNumber{}
	case domain.ServiceLightbulb:
		s.bools[domain.CharacteristicOn] = &fakeBool{}
		s.numbers[domain.CharacteristicBrightness] = &fakeNumber{}
	default:
		s.bools[domain.CharacteristicOn] = &fakeBool{}
	}
	return s
}

func (s *fakeService) Kind() domain.ServiceKind { return s.kind }
func (s *fakeService) Name() string             { return s.name }

func (s *fakeService) Bool(kind domain.CharacteristicKind) (domain.BoolCharacteristic, error) {
	c, ok := s.bools[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedCharacteristic, kind)
	}
	return c, nil
}

func (s *fakeService) Number(kind domain.CharacteristicKind) (domain.NumberCharacteristic, error) {
	c, ok := s.numbers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedCharacteristic, kind)
	}
	return c, nil
}

// on returns the single boolean characteristic of the service.
func (s *fakeService) on() *fakeBool {
	for _, c := range s.bools {
		return c
	}
	return nil
}

// level returns the single number characteristic of the service.
func (s *fakeService) level() *fakeNumber {
	for _, c := range s.numbers {
		return c
	}
	return nil
}

type fakeFactory struct {
	services []*fakeService
}

func (f *fakeFactory) NewService(kind domain.ServiceKind, name string) (domain.Service, error) {
	s := newFakeService(kind, name)
	f.services = append(f.services, s)
	return s, nil
}

func (f *fakeFactory) service(kind domain.ServiceKind) *fakeService {
	for _, s := range f.services {
		if s.kind == kind {
			return s
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// fakeClock: manual clock
// ---------------------------------------------------------------------------

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward and runs every timer that became due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

// Pending returns the number of armed timers.
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
