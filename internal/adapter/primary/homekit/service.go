package homekit

import (
	"fmt"

	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"

	"pc-volume-bridge/internal/domain"
	"pc-volume-bridge/internal/logging"
)

// Service is one HAP service together with its adapted characteristics.
type Service struct {
	*service.S

	kind    domain.ServiceKind
	name    string
	bools   map[domain.CharacteristicKind]*boolChar
	numbers map[domain.CharacteristicKind]*numberChar
}

func newService(kind domain.ServiceKind, name string, log *logging.Logger) (*Service, error) {
	s := &Service{
		kind:    kind,
		name:    name,
		bools:   make(map[domain.CharacteristicKind]*boolChar),
		numbers: make(map[domain.CharacteristicKind]*numberChar),
	}

	switch kind {
	case domain.ServiceSpeaker:
		s.S = service.New(service.TypeSpeaker)
		mute := characteristic.NewMute()
		s.AddC(mute.C)
		s.bools[domain.CharacteristicMute] = &boolChar{b: mute.Bool}

		volume := characteristic.NewVolume()
		s.AddC(volume.C)
		s.numbers[domain.CharacteristicVolume] = intChar(volume.Int, log)
	case domain.ServiceFan:
		s.S = service.New(service.TypeFan)
		on := characteristic.NewOn()
		s.AddC(on.C)
		s.bools[domain.CharacteristicOn] = &boolChar{b: on.Bool}

		speed := characteristic.NewRotationSpeed()
		s.AddC(speed.C)
		s.numbers[domain.CharacteristicRotationSpeed] = floatChar(speed.Float, log)
	case domain.ServiceLightbulb:
		s.S = service.New(service.TypeLightbulb)
		on := characteristic.NewOn()
		s.AddC(on.C)
		s.bools[domain.CharacteristicOn] = &boolChar{b: on.Bool}

		brightness := characteristic.NewBrightness()
		s.AddC(brightness.C)
		s.numbers[domain.CharacteristicBrightness] = intChar(brightness.Int, log)
	case domain.ServiceIncreaseButton, domain.ServiceDecreaseButton:
		s.S = service.New(service.TypeSwitch)
		on := characteristic.NewOn()
		s.AddC(on.C)
		s.bools[domain.CharacteristicOn] = &boolChar{b: on.Bool}
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownService, kind)
	}

	n := characteristic.NewName()
	n.SetValue(name)
	s.AddC(n.C)
	return s, nil
}

func (s *Service) Kind() domain.ServiceKind { return s.kind }
func (s *Service) Name() string             { return s.name }

func (s *Service) Bool(kind domain.CharacteristicKind) (domain.BoolCharacteristic, error) {
	c, ok := s.bools[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %s", domain.ErrUnsupportedCharacteristic, s.kind, kind)
	}
	return c, nil
}

func (s *Service) Number(kind domain.CharacteristicKind) (domain.NumberCharacteristic, error) {
	c, ok := s.numbers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %s", domain.ErrUnsupportedCharacteristic, s.kind, kind)
	}
	return c, nil
}

var _ domain.Service = (*Service)(nil)
