package logfields

import "go.uber.org/zap"

func Channel(val string) zap.Field {
	return zap.String("slack.channel", val)
}

func ThreadTS(val string) zap.Field {
	return zap.String("slack.thread_ts", val)
}

func SlackTeam(val string) zap.Field {
	return zap.String("slack.team_id", val)
}

func SlackUser(val string) zap.Field {
	return zap.String("slack.user_id", val)
}
