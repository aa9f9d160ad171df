package membercache

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/mocks"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

const phone = "215-932-4488"

func davidJones() *entities.Member {
	return &entities.Member{
		ID:            1,
		FirstName:     "David",
		LastName:      "Jones",
		PhoneNumber:   phone,
		DateOfBirth:   time.Date(1950, 6, 14, 0, 0, 0, 0, time.UTC),
		Gender:        "Male",
		StreetAddress: "742 Evergreen Terrace",
		City:          "Philadelphia",
		State:         "PA",
		ZipCode:       "19103",
		Email:         "david.jones@example.com",
	}
}

func appointment(id int64, status entities.AppointmentStatus) *entities.AppointmentDetail {
	return &entities.AppointmentDetail{
		Appointment: entities.Appointment{
			ID:            id,
			Date:          time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			Time:          time.Date(0, 1, 1, 14, 0, 0, 0, time.UTC),
			StreetAddress: "742 Evergreen Terrace",
			City:          "Philadelphia",
			State:         "PA",
			ZipCode:       "19103",
			Status:        status,
		},
		ProviderFirstName: "Jane",
		ProviderLastName:  "Smith",
		ProviderDegree:    "MD",
	}
}

func TestCache_GetServesFreshEntryWithoutStore(t *testing.T) {
	members := new(mocks.MemberRepository)
	appts := new(mocks.AppointmentRepository)
	members.On("GetByPhone", mock.Anything, phone).Return(davidJones(), nil).Once()
	appts.On("ListByPhone", mock.Anything, phone).Return([]*entities.AppointmentDetail{}, nil).Once()

	cache := New(members, appts, nil)

	first, err := cache.Get(context.Background(), phone)
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), phone)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "Name: David Jones")
	assert.Contains(t, first, "Appointments: none on file")
	assert.True(t, cache.IsFresh(phone))
	members.AssertExpectations(t)
	appts.AssertExpectations(t)
}

func TestCache_InvalidateForcesRecompute(t *testing.T) {
	members := new(mocks.MemberRepository)
	appts := new(mocks.AppointmentRepository)
	members.On("GetByPhone", mock.Anything, phone).Return(davidJones(), nil)
	appts.On("ListByPhone", mock.Anything, phone).Return([]*entities.AppointmentDetail{}, nil).Once()
	appts.On("ListByPhone", mock.Anything, phone).
		Return([]*entities.AppointmentDetail{appointment(101, entities.AppointmentStatusScheduled)}, nil).Once()

	cache := New(members, appts, nil)

	before, err := cache.Get(context.Background(), phone)
	require.NoError(t, err)
	assert.NotContains(t, before, "Appointment 101")

	cache.Invalidate(phone)
	assert.False(t, cache.IsFresh(phone))

	after, err := cache.Get(context.Background(), phone)
	require.NoError(t, err)
	assert.Contains(t, after, "Appointment 101 with Jane Smith, MD on Monday, March 10, 2025 at 02:00 PM")
	appts.AssertExpectations(t)
}

func TestCache_NotFoundIsNotCached(t *testing.T) {
	members := new(mocks.MemberRepository)
	appts := new(mocks.AppointmentRepository)
	members.On("GetByPhone", mock.Anything, phone).
		Return(nil, apperrors.NewNotFoundError("member not found")).Twice()

	cache := New(members, appts, nil)

	for i := 0; i < 2; i++ {
		_, err := cache.Get(context.Background(), phone)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	}
	assert.False(t, cache.IsFresh(phone))
	members.AssertExpectations(t)
	appts.AssertNotCalled(t, "ListByPhone", mock.Anything, mock.Anything)
}

func TestCache_InvalidateDuringLoadIsNotLost(t *testing.T) {
	members := new(mocks.MemberRepository)
	appts := new(mocks.AppointmentRepository)

	started := make(chan struct{})
	release := make(chan struct{})

	members.On("GetByPhone", mock.Anything, phone).Return(davidJones(), nil)
	appts.On("ListByPhone", mock.Anything, phone).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return([]*entities.AppointmentDetail{}, nil).Once()
	appts.On("ListByPhone", mock.Anything, phone).
		Return([]*entities.AppointmentDetail{appointment(101, entities.AppointmentStatusScheduled)}, nil).Once()

	cache := New(members, appts, nil)

	done := make(chan string)
	go func() {
		info, err := cache.Get(context.Background(), phone)
		assert.NoError(t, err)
		done <- info
	}()

	<-started
	cache.Invalidate(phone)
	close(release)
	stale := <-done

	assert.NotContains(t, stale, "Appointment 101")
	assert.False(t, cache.IsFresh(phone), "a load that raced an invalidation must not be marked fresh")

	fresh, err := cache.Get(context.Background(), phone)
	require.NoError(t, err)
	assert.Contains(t, fresh, "Appointment 101")
	assert.True(t, cache.IsFresh(phone))
}

func TestCache_ConcurrentMissesShareOneLoad(t *testing.T) {
	members := new(mocks.MemberRepository)
	appts := new(mocks.AppointmentRepository)

	release := make(chan struct{})
	members.On("GetByPhone", mock.Anything, phone).
		Run(func(mock.Arguments) { <-release }).
		Return(davidJones(), nil).Once()
	appts.On("ListByPhone", mock.Anything, phone).Return([]*entities.AppointmentDetail{}, nil).Once()

	cache := New(members, appts, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Get(context.Background(), phone)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	members.AssertExpectations(t)
}

func TestRender_ListsAppointmentsInGivenOrder(t *testing.T) {
	out := Render(davidJones(), []*entities.AppointmentDetail{
		appointment(7, entities.AppointmentStatusScheduled),
		appointment(5, entities.AppointmentStatusCancelled),
	})

	assert.Contains(t, out, "Date of birth: June 14, 1950")
	assert.Contains(t, out, "Address: 742 Evergreen Terrace, Philadelphia, PA 19103")
	assert.Less(t, strings.Index(out, "Appointment 7"), strings.Index(out, "Appointment 5"))
	assert.Contains(t, out, "(status: cancelled)")
}
