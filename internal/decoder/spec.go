package decoder

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Argument names the decoder maps onto a donation.Event.
const (
	ArgDonor      = "donor"
	ArgAmount     = "amount"
	ArgCause      = "cause"
	ArgDonationID = "donationId"
	ArgTimestamp  = "timestamp"
)

// EventSpec is a validated donation event definition ready for decoding.
type EventSpec struct {
	Event   abi.Event
	indexed abi.Arguments
}

// Topic returns topic0 of the event, keccak256 of its canonical signature.
func (s *EventSpec) Topic() common.Hash {
	return s.Event.ID
}

// String returns the canonical signature.
func (s *EventSpec) String() string {
	return s.Event.Sig
}

// NewEventSpec builds an EventSpec from either a human readable signature
// ("DonationReceived(address indexed donor, ...)") or a JSON ABI document.
// It fails when the event lacks the arguments needed to build a donation.
func NewEventSpec(signature string) (*EventSpec, error) {
	trimmed := strings.TrimSpace(signature)

	var (
		event abi.Event
		err   error
	)

	if strings.HasPrefix(trimmed, "[") {
		event, err = eventFromJSON(trimmed)
	} else {
		event, err = eventFromSignature(trimmed)
	}
	if err != nil {
		return nil, err
	}

	return newEventSpec(event)
}

func eventFromSignature(sig string) (abi.Event, error) {
	parsed, err := ParseSignature(sig)
	if err != nil {
		return abi.Event{}, err
	}

	inputs := make(abi.Arguments, len(parsed.Params))
	for i, p := range parsed.Params {
		inputs[i] = abi.Argument{Name: p.Name, Type: p.Type, Indexed: p.Indexed}
	}

	return abi.NewEvent(parsed.Name, parsed.Name, false, inputs), nil
}

func eventFromJSON(doc string) (abi.Event, error) {
	parsed, err := abi.JSON(strings.NewReader(doc))
	if err != nil {
		return abi.Event{}, fmt.Errorf("invalid event ABI: %w", err)
	}

	if ev, ok := parsed.Events["DonationReceived"]; ok {
		return ev, nil
	}

	if len(parsed.Events) != 1 {
		return abi.Event{}, fmt.Errorf("event ABI must contain DonationReceived or exactly one event, found %d",
			len(parsed.Events))
	}

	for _, ev := range parsed.Events {
		return ev, nil
	}

	return abi.Event{}, fmt.Errorf("event ABI contains no events")
}

func newEventSpec(event abi.Event) (*EventSpec, error) {
	if event.Anonymous {
		return nil, fmt.Errorf("event %s: anonymous events have no topic to filter on", event.Name)
	}

	args := make(map[string]abi.Argument, len(event.Inputs))
	for _, arg := range event.Inputs {
		args[arg.Name] = arg
	}

	spec := &EventSpec{Event: event}

	donor, ok := args[ArgDonor]
	if !ok || donor.Type.T != abi.AddressTy {
		return nil, fmt.Errorf("event %s: argument %q of type address is required", event.Name, ArgDonor)
	}

	cause, ok := args[ArgCause]
	if !ok || cause.Type.T != abi.StringTy {
		return nil, fmt.Errorf("event %s: argument %q of type string is required", event.Name, ArgCause)
	}
	if cause.Indexed {
		return nil, fmt.Errorf("event %s: argument %q must not be indexed, indexed strings are hashed", event.Name, ArgCause)
	}

	for _, name := range []string{ArgAmount, ArgDonationID, ArgTimestamp} {
		arg, ok := args[name]
		if !ok {
			if name == ArgAmount {
				return nil, fmt.Errorf("event %s: argument %q is required", event.Name, ArgAmount)
			}
			continue
		}
		if arg.Type.T != abi.UintTy {
			return nil, fmt.Errorf("event %s: argument %q must be an unsigned integer, got %s",
				event.Name, name, arg.Type.String())
		}
	}

	for _, arg := range event.Inputs {
		if arg.Indexed {
			spec.indexed = append(spec.indexed, arg)
		}
	}

	return spec, nil
}
