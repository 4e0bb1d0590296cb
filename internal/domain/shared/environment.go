package shared

// Environment is the tenant environment a posting is scoped to
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// Environments lists every recognized tenant environment
var Environments = []Environment{EnvironmentSandbox, EnvironmentProduction}

// IsValid reports whether e is a recognized tenant environment
func (e Environment) IsValid() bool {
	for _, known := range Environments {
		if e == known {
			return true
		}
	}
	return false
}

func (e Environment) String() string {
	return string(e)
}
