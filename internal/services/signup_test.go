package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/localnerve/voternet/internal/logging"
	"github.com/localnerve/voternet/internal/messaging"
	"github.com/localnerve/voternet/internal/models"
	"github.com/localnerve/voternet/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outbox struct {
	mu   sync.Mutex
	sent []messaging.Email
}

func (o *outbox) SendEmail(_ context.Context, e messaging.Email) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, e)
	return true
}

func TestSignupRegister(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac := f.add(t, ka, models.PlaceTypeAC, "AC001")
	pb1 := f.add(t, ac, models.PlaceTypePB, "PB0001")
	pb2 := f.add(t, ac, models.PlaceTypePB, "PB0002")
	f.person(t, ac, "AC Lead", "lead@example.com", "9876543200", models.RoleCoordinator)
	f.person(t, pb2, "Booth Lead", "booth@example.com", "9876543201", models.RoleCoordinator)
	f.lookup.add("ABC1234567", "1", "2")

	box := &outbox{}
	signup := services.NewSignup(f.people, f.places, box, []string{"admins@example.com"}, "https://voternet.example.com/", logging.Discard())

	p, err := signup.Register(f.ctx, &pb1, services.VolunteerInput{
		Name: "Asha", Email: "asha@example.com", Phone: "9876543210", VoterID: "ABC1234567", Role: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RolePBAgent, p.Role, "signups are always polling booth agents")
	assert.Equal(t, pb2.ID, p.PlaceID)

	require.Len(t, box.sent, 1)
	e := box.sent[0]
	assert.Equal(t, []string{"asha@example.com"}, e.To)
	assert.Equal(t, []string{"booth@example.com"}, e.Cc, "the coordinators of the booth the agent was moved to")
	assert.Equal(t, []string{"admins@example.com"}, e.Bcc)
	assert.Contains(t, e.Body, "https://voternet.example.com/KA/AC001/PB0002")

	_, err = signup.Register(f.ctx, &pb1, services.VolunteerInput{Name: "Asha", Email: "ASHA@example.com", Phone: "9876543219"})
	assert.True(t, services.IsValidation(err), "already registered in the AC")

	_, err = signup.Register(f.ctx, &pb1, services.VolunteerInput{Name: "Ravi", Phone: "9876543211"})
	assert.True(t, services.IsValidation(err), "an email is required")

	p, err = signup.Register(f.ctx, &pb1, services.VolunteerInput{Name: "Ravi", Email: "ravi@example.com", Phone: "9876543211"})
	require.NoError(t, err)
	require.Len(t, box.sent, 2)
	assert.Equal(t, []string{"lead@example.com"}, box.sent[1].Cc, "a booth without coordinators falls back to the AC")
	assert.Equal(t, pb1.ID, p.PlaceID)
}
