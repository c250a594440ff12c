package config

const (
	// AppName is the name of the application.
	AppName = "botdd"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvPostgresDsn is the environment variable for the Postgres DSN.
	EnvPostgresDsn = `POSTGRES_DSN`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`
)

var (
	// BotToken is the token for the bot.
	BotToken string

	// ApplicationId is the ID of the application.
	ApplicationId string

	// PostgresDsn is the DSN for the Postgres database.
	PostgresDsn string

	// MonitoringPort is the port for the monitoring server.
	MonitoringPort string
)
