package weblogic

// Application is what gets deployed and activated.
type Application struct {
	Name    string
	Archive string
	Targets []string
	// Remote means the tool does not run on the admin server host.
	Remote bool
	// Upload sends archive bytes to the admin server instead of a server-side path.
	Upload bool
}

type Options struct {
	// Defaults is the application the session is opened for, deployed by DeployDefault.
	Defaults *Application
	// TimeoutSec is per HTTP request.
	TimeoutSec         int
	InsecureSkipVerify bool
	// MinVersion of WebLogic Server that exposes edit/appDeployments, default 12.2.1.3.
	MinVersion string
}

type versionResource struct {
	Version   string `json:"version"`
	IsLatest  bool   `json:"isLatest"`
	Lifecycle string `json:"lifecycle"`
}

type nameResource struct {
	Name string `json:"name"`
}

type nameItems struct {
	Items []nameResource `json:"items"`
}

type identity struct {
	Identity []string `json:"identity"`
}

type deploymentModel struct {
	Name       string     `json:"name"`
	SourcePath string     `json:"sourcePath,omitempty"`
	Targets    []identity `json:"targets"`
}

type restMessage struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// restError covers both error shapes of the management API:
// RFC 7807 style {type,title,detail,status} and {messages:[...]}.
type restError struct {
	Type     string        `json:"type"`
	Title    string        `json:"title"`
	Detail   string        `json:"detail"`
	Status   int           `json:"status"`
	Messages []restMessage `json:"messages"`
}

type call struct {
	Method string
	Path   string
	Status int
	Err    string
}
