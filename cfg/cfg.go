package cfg

type (
	App struct {
		Name    string
		Version string
	}

	Sqlite struct {
		// Database is a file path or a "file:" URI. A URI form enables
		// in-memory shared-cache stores for testing.
		Database string
	}

	GithubApi struct {
		AccessToken       string
		SearchUrl         string
		PerPage           int
		RequestsPerSecond int
		ThrottleDelayMs   int
		RateLimitResetMin int
	}

	Miner struct {
		Topics    []string
		ReposCsv  string
		TopicsCsv string
	}

	Kafka struct {
		Brokers   []string
		TopicRepo string
		GroupId   string
	}

	Ui struct {
		Port int
	}
)

type Config struct {
	App       App
	Sqlite    Sqlite
	GithubApi GithubApi
	Miner     Miner
	Kafka     Kafka
	Ui        Ui
}
