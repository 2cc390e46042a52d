package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

func TestAMQPPublisher_RoutesByEventType(t *testing.T) {
	ch := new(mockChannel)
	var published amqp.Publishing
	ch.On("Publish", "crm.events", TypeLeadResolved, false, false, mock.AnythingOfType("amqp.Publishing")).
		Run(func(args mock.Arguments) { published = args.Get(4).(amqp.Publishing) }).
		Return(nil)

	p := newAMQPPublisher("crm.events", ch)
	err := p.Publish(context.Background(), Event{Type: TypeLeadResolved, OrganizationID: "org-1", Data: map[string]string{"lead_id": "l1"}})
	require.NoError(t, err)
	ch.AssertExpectations(t)

	assert.Equal(t, "application/json", published.ContentType)
	assert.NotEmpty(t, published.MessageId)

	var decoded Event
	require.NoError(t, json.Unmarshal(published.Body, &decoded))
	assert.Equal(t, "org-1", decoded.OrganizationID)
	assert.Equal(t, published.MessageId, decoded.ID)
}

func TestAMQPPublisher_Close(t *testing.T) {
	ch := new(mockChannel)
	ch.On("Close").Return(nil)
	require.NoError(t, newAMQPPublisher("x", ch).Close())
	ch.AssertExpectations(t)
}

func TestMemoryPublisher_OfType(t *testing.T) {
	p := &MemoryPublisher{}
	_ = p.Publish(context.Background(), Event{Type: TypeLeadResolved})
	_ = p.Publish(context.Background(), Event{Type: TypeContactOptedOut})
	assert.Len(t, p.OfType(TypeLeadResolved), 1)
	assert.Len(t, p.Events(), 2)
}
