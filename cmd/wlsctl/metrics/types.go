package metrics

type DDSeries struct {
	Series []DDMetric `json:"series"`
}

type DDMetric struct {
	Metric string    `json:"metric"`
	Type   string    `json:"type,omitempty"`
	Host   string    `json:"host,omitempty"`
	Tags   []string  `json:"tags,omitempty"`
	Points [][]int64 `json:"points"`
}

/*
	"metric": "wlsctl.commands.usage",
	"type": "count",
	"host": "714cbf9b-f8df-4362-8aea-b7321ba33a2e",
	"tags": ["command:wlsctl-deploy", "outcome:EXIT_OK", "machine-id:714cbf9b-f8df-4362-8aea-b7321ba33a2e"],
	"points": [[$NOW, 1]]
*/

type DDSeriesResponse struct {
	Status string `json:"status"`
}
