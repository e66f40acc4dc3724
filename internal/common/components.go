package common

const (
	ComponentPoller        = "poller"
	ComponentChainClient   = "chain-client"
	ComponentDecoder       = "decoder"
	ComponentStore         = "store"
	ComponentReorgDetector = "reorg-detector"
	ComponentHub           = "hub"
	ComponentAPI           = "api"
	ComponentMetrics       = "metrics"
)

var AllComponents = map[string]struct{}{
	ComponentPoller:        {},
	ComponentChainClient:   {},
	ComponentDecoder:       {},
	ComponentStore:         {},
	ComponentReorgDetector: {},
	ComponentHub:           {},
	ComponentAPI:           {},
	ComponentMetrics:       {},
}
