package trading

// ContractType identifies a futures contract specification.
type ContractType string

const (
	ContractNQ  ContractType = "NQ"
	ContractMNQ ContractType = "MNQ"
)

// ContractSpec describes the static economics of one contract: the dollar
// value of a one point move, the margin held per open contract and the
// minimum price increment.
type ContractSpec struct {
	PointValue        float64 `json:"point_value"`
	MarginRequirement float64 `json:"margin_requirement"`
	TickSize          float64 `json:"tick_size"`
}

// catalog is the static, process-wide contract table. It is read-only at
// runtime.
var catalog = map[ContractType]ContractSpec{
	ContractNQ:  {PointValue: 20.0, MarginRequirement: 500.0, TickSize: 0.25},
	ContractMNQ: {PointValue: 2.0, MarginRequirement: 50.0, TickSize: 0.25},
}

func (t ContractType) String() string {
	return string(t)
}

func (t ContractType) IsValid() bool {
	_, ok := catalog[t]
	return ok
}

// Spec returns the contract specification. Unknown types fall back to the
// micro contract.
func (t ContractType) Spec() ContractSpec {
	if spec, ok := catalog[t]; ok {
		return spec
	}
	return catalog[ContractMNQ]
}

// ContractTypes lists the catalog entries in a stable order.
func ContractTypes() []ContractType {
	return []ContractType{ContractNQ, ContractMNQ}
}
