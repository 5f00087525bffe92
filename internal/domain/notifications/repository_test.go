package notifications_test

import (
	"testing"

	"getpay-backend/internal/domain/notifications"
	"getpay-backend/internal/domain/students"
	"getpay-backend/internal/pkg/apperrors"
	"getpay-backend/internal/pkg/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadState(t *testing.T) {
	db := testdb.New(t)

	var owners []students.Student
	for _, reg := range []string{"REG-1", "REG-2"} {
		s := students.Student{Name: reg, Email: reg + "@example.com", RegistrationNo: reg}
		require.NoError(t, s.SetPassword("pw"))
		require.NoError(t, students.Create(db, &s))
		owners = append(owners, s)
	}
	mine, theirs := owners[0], owners[1]

	var first notifications.Notification
	for i, title := range []string{"one", "two", "three"} {
		n := notifications.Notification{StudentID: mine.ID, Title: title, Message: title}
		require.NoError(t, notifications.Create(db, &n))
		assert.Equal(t, notifications.TypeInfo, n.Type)
		if i == 0 {
			first = n
		}
	}
	foreign := notifications.Notification{StudentID: theirs.ID, Title: "x", Message: "x"}
	require.NoError(t, notifications.Create(db, &foreign))

	list, err := notifications.Latest(db, mine.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "three", list[0].Title)

	count, err := notifications.UnreadCount(db, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, notifications.MarkRead(db, mine.ID, first.ID))
	// Marking an already read notification is fine.
	require.NoError(t, notifications.MarkRead(db, mine.ID, first.ID))

	err = notifications.MarkRead(db, mine.ID, foreign.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	n, err := notifications.MarkAllRead(db, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err = notifications.UnreadCount(db, mine.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = notifications.UnreadCount(db, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
