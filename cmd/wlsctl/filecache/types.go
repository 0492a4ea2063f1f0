package filecache

type Metrics struct {
	Disabled bool
	Host     *string `yaml:",omitempty"`
}

// Deployment is the last run for an admin server and application.
type Deployment struct {
	Url         string
	Application string
	Id          string
	Outcome     string
	At          string
}

type FileCache struct {
	Version     int
	Metrics     Metrics
	Deployments []Deployment `yaml:",omitempty"`
}
