package decoder

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goran-ethernal/DonationIndexor/pkg/config"
	"github.com/stretchr/testify/require"
)

const donationABI = `[{
	"type": "event",
	"name": "DonationReceived",
	"anonymous": false,
	"inputs": [
		{"name": "donor", "type": "address", "indexed": true},
		{"name": "amount", "type": "uint256", "indexed": false},
		{"name": "cause", "type": "string", "indexed": false},
		{"name": "donationId", "type": "uint256", "indexed": false},
		{"name": "timestamp", "type": "uint256", "indexed": false}
	]
}]`

func TestNewEventSpec_DefaultSignature(t *testing.T) {
	spec, err := NewEventSpec(config.DefaultEventSignature)
	require.NoError(t, err)

	canonical := "DonationReceived(address,uint256,string,uint256,uint256)"
	require.Equal(t, canonical, spec.String())
	require.Equal(t, crypto.Keccak256Hash([]byte(canonical)), spec.Topic())
	require.Len(t, spec.indexed, 1)
	require.Equal(t, ArgDonor, spec.indexed[0].Name)
}

func TestNewEventSpec_JSONABI(t *testing.T) {
	fromJSON, err := NewEventSpec(donationABI)
	require.NoError(t, err)

	fromSig, err := NewEventSpec(config.DefaultEventSignature)
	require.NoError(t, err)

	require.Equal(t, fromSig.Topic(), fromJSON.Topic())
}

func TestNewEventSpec_OptionalArguments(t *testing.T) {
	spec, err := NewEventSpec("Donated(address indexed donor, uint128 amount, string cause)")
	require.NoError(t, err)
	require.Len(t, spec.Event.Inputs, 3)
	require.Len(t, spec.indexed, 1)
	require.Equal(t, "Donated(address,uint128,string)", spec.String())
}

func TestNewEventSpec_Errors(t *testing.T) {
	tests := []struct {
		name    string
		sig     string
		wantErr string
	}{
		{name: "empty", sig: "", wantErr: "empty signature"},
		{name: "missing parenthesis", sig: "DonationReceived", wantErr: "malformed parentheses"},
		{name: "lowercase name", sig: "donation(address indexed donor)", wantErr: "invalid event name"},
		{name: "invalid type", sig: "D(address indexed donor, uint257 amount, string cause)", wantErr: "invalid type"},
		{name: "bad keyword", sig: "D(address public donor, uint256 amount, string cause)", wantErr: "expected 'indexed'"},
		{name: "duplicate names", sig: "D(address donor, uint256 donor, string cause)", wantErr: "duplicate parameter"},
		{name: "missing donor", sig: "D(uint256 amount, string cause)", wantErr: `"donor"`},
		{name: "donor not address", sig: "D(uint256 donor, uint256 amount, string cause)", wantErr: `"donor"`},
		{name: "missing cause", sig: "D(address indexed donor, uint256 amount)", wantErr: `"cause"`},
		{name: "indexed cause", sig: "D(address indexed donor, uint256 amount, string indexed cause)", wantErr: "must not be indexed"},
		{name: "missing amount", sig: "D(address indexed donor, string cause)", wantErr: `"amount" is required`},
		{name: "signed amount", sig: "D(address indexed donor, int256 amount, string cause)", wantErr: "unsigned integer"},
		{name: "string timestamp", sig: "D(address indexed donor, uint256 amount, string cause, string timestamp)", wantErr: "unsigned integer"},
		{name: "trailing garbage", sig: "D(address indexed donor, uint256 amount, string cause) extra", wantErr: "unexpected trailing"},
		{name: "bad json", sig: "[{", wantErr: "invalid event ABI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := NewEventSpec(tt.sig)
			require.Nil(t, spec)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEventFromSignature_Canonical(t *testing.T) {
	tests := []struct {
		name      string
		sig       string
		canonical string
	}{
		{
			name:      "types only",
			sig:       "Transfer(address,address,uint256)",
			canonical: "Transfer(address,address,uint256)",
		},
		{
			name:      "event keyword and semicolon",
			sig:       "event DonationReceived(address indexed donor, uint256 amount);",
			canonical: "DonationReceived(address,uint256)",
		},
		{
			name:      "no parameters",
			sig:       "Paused()",
			canonical: "Paused()",
		},
		{
			name:      "arrays and fixed bytes",
			sig:       "Batch(uint256[] ids, bytes32 indexed root, address[2] pair)",
			canonical: "Batch(uint256[],bytes32,address[2])",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := eventFromSignature(tt.sig)
			require.NoError(t, err)
			require.Equal(t, tt.canonical, event.Sig)
			require.Equal(t, crypto.Keccak256Hash([]byte(tt.canonical)), event.ID)
		})
	}
}

func TestParseSignature_ParamNames(t *testing.T) {
	sig, err := ParseSignature("Transfer(address indexed, address to, uint256)")
	require.NoError(t, err)
	require.Len(t, sig.Params, 3)

	require.Equal(t, "arg0", sig.Params[0].Name)
	require.True(t, sig.Params[0].Indexed)
	require.Equal(t, "to", sig.Params[1].Name)
	require.False(t, sig.Params[1].Indexed)
	require.Equal(t, "arg2", sig.Params[2].Name)
}
