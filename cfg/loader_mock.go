package cfg

type MockLoader struct{}

func NewMockLoader() (*MockLoader, error) {
	return &MockLoader{}, nil
}

func (ml *MockLoader) Load() (*Config, error) {
	return &Config{
		// App
		App: App{
			Name:    "thrivescraper",
			Version: "1.0",
		},

		// Sqlite
		Sqlite: Sqlite{
			Database: "THRIVE.db",
		},

		// GithubApi
		GithubApi: GithubApi{
			AccessToken:       "",
			SearchUrl:         "https://api.github.com/search/repositories",
			PerPage:           100,
			RequestsPerSecond: 10,
			ThrottleDelayMs:   200,
			RateLimitResetMin: 1,
		},

		// Miner
		Miner: Miner{
			Topics: []string{
				"materials",
				"materials-science",
				"materials-informatics",
				"computational-materials-science",
				"materials-design",
				"materials-discovery",
				"materials-genome",
				"materials-platform",
				"computational-materials",
				"materials-modeling",
				"computational-materials-engineering",
				"materials-simulation",
				"optimade",
				"ab-initio",
				"quantum-chemistry",
				"computational-chemistry",
			},
			ReposCsv:  "repos.csv",
			TopicsCsv: "topics.csv",
		},

		// Kafka
		Kafka: Kafka{
			Brokers:   []string{"127.0.0.1:9092"},
			TopicRepo: "thrive-repos",
			GroupId:   "thrive-repo-consumer",
		},

		// Ui
		Ui: Ui{
			Port: 8080,
		},
	}, nil
}
