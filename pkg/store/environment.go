package store

// Environment is the server environment a signed payload was issued for.
// Payloads from different environments are signed independently, so a
// verifier always checks the environment in addition to the signature.
type Environment string

const (
	EnvironmentSandbox      Environment = "Sandbox"
	EnvironmentProduction   Environment = "Production"
	EnvironmentXcode        Environment = "Xcode"
	EnvironmentLocalTesting Environment = "LocalTesting"
)

// IsLocal reports whether payloads of this environment are created by local
// tooling and therefore carry no platform signature.
func (e Environment) IsLocal() bool {
	return e == EnvironmentXcode || e == EnvironmentLocalTesting
}
