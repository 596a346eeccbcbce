package domain

// FunnelStep is one milestone a user can reach while talking to the bot.
type FunnelStep string

const (
	StepStarted       FunnelStep = "started"
	StepContactShared FunnelStep = "contact_shared"
	StepJoinedGroup   FunnelStep = "joined_group"
)

type FunnelRepository interface {
	Hit(step FunnelStep, userID int64) error
	Counts() (map[FunnelStep]int, error)
}
