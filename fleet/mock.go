package fleet

import "sort"

// MockStatistics is a Statistics snapshot with values set directly by the caller.
type MockStatistics struct {
	values map[ChannelType]map[int]map[Field]float64
}

func NewMockStatistics() *MockStatistics {
	return &MockStatistics{values: make(map[ChannelType]map[int]map[Field]float64)}
}

// Set stores a value and returns the statistics so that calls can be chained.
func (s *MockStatistics) Set(channelType ChannelType, channel int, field Field, val float64) *MockStatistics {
	if s.values[channelType] == nil {
		s.values[channelType] = make(map[int]map[Field]float64)
	}
	if s.values[channelType][channel] == nil {
		s.values[channelType][channel] = make(map[Field]float64)
	}
	s.values[channelType][channel][field] = val
	return s
}

func (s *MockStatistics) ChannelTypes() []ChannelType {
	types := make([]ChannelType, 0, len(s.values))
	for t := range s.values {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func (s *MockStatistics) Channels(channelType ChannelType) []int {
	channels := make([]int, 0, len(s.values[channelType]))
	for c := range s.values[channelType] {
		channels = append(channels, c)
	}
	sort.Ints(channels)
	return channels
}

func (s *MockStatistics) Value(channelType ChannelType, channel int, field Field) float64 {
	return s.values[channelType][channel][field]
}

// MockInverter records the limit commands it is sent and reports whatever queue state the test sets.
type MockInverter struct {
	SerialNumber  uint64
	Stats         *MockStatistics
	QueueEmpty    bool
	CommandStatus CommandStatus
	SendErr       error
	SentLimits    []float64
}

func NewMockInverter(serial uint64) *MockInverter {
	return &MockInverter{
		SerialNumber:  serial,
		Stats:         NewMockStatistics(),
		QueueEmpty:    true,
		CommandStatus: CommandStatusOk,
	}
}

func (m *MockInverter) Serial() uint64                        { return m.SerialNumber }
func (m *MockInverter) Statistics() Statistics                { return m.Stats }
func (m *MockInverter) IsQueueEmpty() bool                    { return m.QueueEmpty }
func (m *MockInverter) LastLimitCommandStatus() CommandStatus { return m.CommandStatus }

func (m *MockInverter) SendActivePowerLimit(limit float64, limitType LimitType) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.SentLimits = append(m.SentLimits, limit)
	return nil
}

// MockFleet is a Fleet made of MockInverters.
type MockFleet struct {
	Invs         []*MockInverter
	AllProducing bool
	Reachable    bool
}

func (f *MockFleet) Inverters() []Inverter {
	invs := make([]Inverter, 0, len(f.Invs))
	for _, inv := range f.Invs {
		invs = append(invs, inv)
	}
	return invs
}

func (f *MockFleet) InverterBySerial(serial uint64) Inverter {
	for _, inv := range f.Invs {
		if inv.SerialNumber == serial {
			return inv
		}
	}
	return nil
}

func (f *MockFleet) AllEnabledProducing() bool { return f.AllProducing }
func (f *MockFleet) AtLeastOneReachable() bool { return f.Reachable }
