package decoder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	eventNameRe = regexp.MustCompile(`^[A-Z][a-zA-Z0-9_]*$`)
	paramNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// Param is one parameter of a human readable event signature.
type Param struct {
	Name    string
	Type    abi.Type
	Indexed bool
}

// Signature is a parsed event signature such as
// "DonationReceived(address indexed donor, uint256 amount, string cause)".
type Signature struct {
	Raw    string
	Name   string
	Params []Param
}

// ParseSignature parses a human readable event signature. Parameter types are
// validated with the abi package so only types the node can emit are accepted.
func ParseSignature(sig string) (*Signature, error) {
	sig = strings.TrimSpace(sig)
	if sig == "" {
		return nil, fmt.Errorf("empty signature")
	}

	openParen := strings.Index(sig, "(")
	closeParen := strings.LastIndex(sig, ")")
	if openParen == -1 || closeParen == -1 || closeParen < openParen {
		return nil, fmt.Errorf("invalid signature %q: malformed parentheses", sig)
	}

	if rest := strings.TrimSpace(sig[closeParen+1:]); rest != "" && rest != ";" {
		return nil, fmt.Errorf("invalid signature %q: unexpected trailing %q", sig, rest)
	}

	name := strings.TrimSpace(strings.TrimPrefix(sig[:openParen], "event "))
	if !eventNameRe.MatchString(name) {
		return nil, fmt.Errorf("invalid event name %q: must start with an uppercase letter "+
			"and contain only alphanumeric characters", name)
	}

	params, err := parseParams(sig[openParen+1 : closeParen])
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", sig, err)
	}

	return &Signature{Raw: sig, Name: name, Params: params}, nil
}

func parseParams(list string) ([]Param, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	parts := strings.Split(list, ",")
	params := make([]Param, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))

	for i, part := range parts {
		p, err := parseParam(strings.Fields(part), i)
		if err != nil {
			return nil, fmt.Errorf("parameter %d (%q): %w", i, strings.TrimSpace(part), err)
		}

		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("duplicate parameter name %q", p.Name)
		}
		seen[p.Name] = struct{}{}

		params = append(params, p)
	}

	return params, nil
}

// parseParam accepts "type", "type name", "type indexed" and "type indexed name".
func parseParam(fields []string, index int) (Param, error) {
	if len(fields) == 0 {
		return Param{}, fmt.Errorf("empty parameter")
	}

	typ, err := abi.NewType(fields[0], "", nil)
	if err != nil {
		return Param{}, fmt.Errorf("invalid type %q: %w", fields[0], err)
	}
	if typ.T == abi.TupleTy {
		return Param{}, fmt.Errorf("tuple parameters are not supported")
	}

	p := Param{Type: typ, Name: fmt.Sprintf("arg%d", index)}

	switch len(fields) {
	case 1:
	case 2: //nolint:mnd
		if fields[1] == "indexed" {
			p.Indexed = true
		} else {
			p.Name = fields[1]
		}
	case 3: //nolint:mnd
		if fields[1] != "indexed" {
			return Param{}, fmt.Errorf("expected 'indexed' keyword, got %q", fields[1])
		}
		p.Indexed = true
		p.Name = fields[2]
	default:
		return Param{}, fmt.Errorf("too many parts in parameter definition")
	}

	if !paramNameRe.MatchString(p.Name) {
		return Param{}, fmt.Errorf("invalid parameter name %q", p.Name)
	}

	return p, nil
}
