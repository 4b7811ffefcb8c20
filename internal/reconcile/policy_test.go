package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notorious-utopia/egrn/internal/order/models"
)

func TestDecide(t *testing.T) {
	created := models.StatusFromRaw("Заявка только что создана")
	inProgress := models.StatusFromRaw("В работе")
	completed := models.StatusFromRaw("Завершен")
	unknown := models.StatusFromRaw("Приостановлен")

	tests := []struct {
		name     string
		local    models.Status
		upstream models.Status
		want     Action
	}{
		{"created to in progress", created, inProgress, ActionUpdate},
		{"created to completed", created, completed, ActionComplete},
		{"in progress to completed", inProgress, completed, ActionComplete},
		{"upstream matches local", inProgress, inProgress, ActionNone},
		{"upstream still created", created, created, ActionNone},
		{"upstream unknown", inProgress, unknown, ActionNone},
		{"unknown local moves forward", unknown, completed, ActionComplete},
		{"local terminal ignores in progress", completed, inProgress, ActionNone},
		{"local terminal ignores created", completed, created, ActionNone},
		{"local terminal ignores unknown", completed, unknown, ActionNone},
		{"local terminal matches upstream", completed, completed, ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.local, tt.upstream))
		})
	}
}
