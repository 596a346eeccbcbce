package usecase

import (
	"fmt"
	"strings"

	"subscriber-relay-bot/internal/domain"
)

type FunnelUsecase struct {
	repo  domain.FunnelRepository
	order []domain.FunnelStep
}

func NewFunnelUsecase(repo domain.FunnelRepository) *FunnelUsecase {
	return &FunnelUsecase{
		repo: repo,
		order: []domain.FunnelStep{
			domain.StepStarted,
			domain.StepContactShared,
			domain.StepJoinedGroup,
		},
	}
}

func (u *FunnelUsecase) Reach(userID int64, step domain.FunnelStep) error {
	if step == "" {
		return nil
	}
	return u.repo.Hit(step, userID)
}

// Chart renders one row per step. Only contact_shared is a subset of started,
// so it alone carries a conversion rate; joined_group is an independent total.
func (u *FunnelUsecase) Chart() string {
	counts, err := u.repo.Counts()
	if err != nil || len(counts) == 0 {
		return "Voronka bo'yicha ma'lumot hali yo'q"
	}
	var peak int
	for _, s := range u.order {
		peak = max(peak, counts[s])
	}
	started := counts[domain.StepStarted]

	var b strings.Builder
	b.WriteString("Voronka bosqichlari:\n")
	for _, s := range u.order {
		c := counts[s]
		fmt.Fprintf(&b, "- %s: %d %s", stepLabel(s), c, bar20(c, peak))
		if s == domain.StepContactShared && started > 0 {
			fmt.Fprintf(&b, " (%d%% boshlaganlardan)", percent(c, started))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// GraphData returns labels and values in step order for the bar chart.
func (u *FunnelUsecase) GraphData() ([]string, []int, error) {
	counts, err := u.repo.Counts()
	if err != nil {
		return nil, nil, err
	}
	labels := make([]string, 0, len(u.order))
	values := make([]int, 0, len(u.order))
	for _, s := range u.order {
		labels = append(labels, stepLabel(s))
		values = append(values, counts[s])
	}
	return labels, values, nil
}

func percent(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (100 * a) / b
}

func bar20(val, peak int) string {
	if peak <= 0 {
		return ""
	}
	filled := min(max((20*val)/peak, 0), 20)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 20-filled) + "]"
}

func stepLabel(s domain.FunnelStep) string {
	switch s {
	case domain.StepStarted:
		return "Boshlagan"
	case domain.StepContactShared:
		return "Raqam ulashgan"
	case domain.StepJoinedGroup:
		return "Guruhga qo'shilgan"
	default:
		return string(s)
	}
}
