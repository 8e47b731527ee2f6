package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/medibook/internal/domain"
	"github.com/medibook/medibook/internal/domain/appointment"
)

func newAppointment(doctorID, patientID uuid.UUID, at time.Time) *appointment.Appointment {
	return &appointment.Appointment{
		DoctorID:    doctorID,
		PatientID:   patientID,
		ScheduledAt: at,
		Notes:       "checkup",
		Status:      appointment.StatusPending,
	}
}

func TestCreateEnforcesSlotUniqueness(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	doctorID := uuid.New()

	t.Run("Concurrent Bookings Yield Exactly One Winner", func(t *testing.T) {
		repo := NewStore().Appointments()

		const workers = 16
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = repo.Create(ctx, newAppointment(doctorID, uuid.New(), at))
			}(i)
		}
		wg.Wait()

		var won, lost int
		for _, err := range errs {
			switch {
			case err == nil:
				won++
			default:
				require.ErrorIs(t, err, appointment.ErrSlotTaken)
				lost++
			}
		}
		assert.Equal(t, 1, won)
		assert.Equal(t, workers-1, lost)
	})

	t.Run("Cancelled Appointment Frees The Slot", func(t *testing.T) {
		repo := NewStore().Appointments()

		first := newAppointment(doctorID, uuid.New(), at)
		require.NoError(t, repo.Create(ctx, first))
		require.ErrorIs(t, repo.Create(ctx, newAppointment(doctorID, uuid.New(), at)), appointment.ErrSlotTaken)

		first.Status = appointment.StatusCancelled
		require.NoError(t, repo.UpdateStatus(ctx, first))

		assert.NoError(t, repo.Create(ctx, newAppointment(doctorID, uuid.New(), at)))
	})

	t.Run("Other Doctors Are Unaffected", func(t *testing.T) {
		repo := NewStore().Appointments()

		require.NoError(t, repo.Create(ctx, newAppointment(doctorID, uuid.New(), at)))
		assert.NoError(t, repo.Create(ctx, newAppointment(uuid.New(), uuid.New(), at)))
	})
}

func TestUpdateStatusVersioning(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Stale Version Is Rejected", func(t *testing.T) {
		repo := NewStore().Appointments()
		a := newAppointment(uuid.New(), uuid.New(), at)
		require.NoError(t, repo.Create(ctx, a))

		readerA, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		readerB, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)

		readerA.Status = appointment.StatusConfirmed
		require.NoError(t, repo.UpdateStatus(ctx, readerA))

		readerB.Status = appointment.StatusCancelled
		assert.ErrorIs(t, repo.UpdateStatus(ctx, readerB), appointment.ErrConcurrentModification)
	})

	t.Run("Version Advances On Success", func(t *testing.T) {
		repo := NewStore().Appointments()
		a := newAppointment(uuid.New(), uuid.New(), at)
		require.NoError(t, repo.Create(ctx, a))
		require.Equal(t, int64(0), a.Version)

		a.Status = appointment.StatusConfirmed
		require.NoError(t, repo.UpdateStatus(ctx, a))
		assert.Equal(t, int64(1), a.Version)

		stored, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, appointment.StatusConfirmed, stored.Status)
		assert.Equal(t, int64(1), stored.Version)
	})

	t.Run("Missing Appointment", func(t *testing.T) {
		repo := NewStore().Appointments()
		ghost := newAppointment(uuid.New(), uuid.New(), at)
		ghost.ID = uuid.New()
		assert.ErrorIs(t, repo.UpdateStatus(ctx, ghost), appointment.ErrAppointmentNotFound)
	})
}

func TestActiveForDoctor(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Appointments()
	doctorID := uuid.New()
	day := func(d int) time.Time { return time.Date(2024, 3, d, 10, 0, 0, 0, time.UTC) }

	cancelled := newAppointment(doctorID, uuid.New(), day(2))
	require.NoError(t, repo.Create(ctx, cancelled))
	cancelled.Status = appointment.StatusCancelled
	require.NoError(t, repo.UpdateStatus(ctx, cancelled))

	require.NoError(t, repo.Create(ctx, newAppointment(doctorID, uuid.New(), day(1))))
	require.NoError(t, repo.Create(ctx, newAppointment(doctorID, uuid.New(), day(3))))
	require.NoError(t, repo.Create(ctx, newAppointment(uuid.New(), uuid.New(), day(3))))

	items, err := repo.ActiveForDoctor(ctx, doctorID, day(2))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].ScheduledAt.Equal(day(3)))
}

func TestStorageUnavailableOnDeadContext(t *testing.T) {
	store := NewStore()
	repo := store.Appointments()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, repo.Create(ctx, newAppointment(uuid.New(), uuid.New(), at)), appointment.ErrStorageUnavailable)
	_, err := repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, appointment.ErrStorageUnavailable)
	_, err = repo.List(ctx, &appointment.ListQuery{})
	assert.ErrorIs(t, err, appointment.ErrStorageUnavailable)
	_, err = store.Directory().GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, appointment.ErrStorageUnavailable)

	// GetDoctor must report the transient failure, not a missing doctor.
	doctor := store.AddUser(&domain.User{FullName: "Dr. A", Role: domain.RoleDoctor})
	_, err = store.Directory().GetDoctor(ctx, doctor.ID)
	assert.ErrorIs(t, err, appointment.ErrStorageUnavailable)
	assert.NotErrorIs(t, err, domain.ErrDoctorNotFound)
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	doctor := store.AddUser(&domain.User{FullName: "Dr. A", Role: domain.RoleDoctor})
	patient := store.AddUser(&domain.User{FullName: "Patient One", Role: domain.RolePatient})

	t.Run("GetUser", func(t *testing.T) {
		u, err := store.Directory().GetUser(ctx, patient.ID)
		require.NoError(t, err)
		assert.Equal(t, "Patient One", u.FullName)

		_, err = store.Directory().GetUser(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("GetDoctor Rejects Non Doctors", func(t *testing.T) {
		u, err := store.Directory().GetDoctor(ctx, doctor.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleDoctor, u.Role)

		_, err = store.Directory().GetDoctor(ctx, patient.ID)
		assert.ErrorIs(t, err, domain.ErrDoctorNotFound)
	})
}
