package protocol

// Action tags, as they appear on the wire.
const (
	TagInvalid               uint8 = 0
	TagProduce               uint8 = 1
	TagConsume               uint8 = 2
	TagCreateTopic           uint8 = 3
	TagInitializeController  uint8 = 4
	TagInitializeBroker      uint8 = 5
	TagIamAlive              uint8 = 6
	TagQuit                  uint8 = 99
)

// Action is one request variant. Concrete types implement it the way
// each sarama request type implements encode/decode against a shared
// packetEncoder/packetDecoder pair.
type Action interface {
	Tag() uint8
	encodeBody(e *encoder)
	decodeBody(d *decoder) error
}

// ActionMessage is a full request frame: a tagged Action body followed
// by a trailing consumer id, preserved round-trip but unused by
// storage semantics.
type ActionMessage struct {
	Action     Action
	ConsumerID string
}

func NewActionMessage(action Action, consumerID string) ActionMessage {
	return ActionMessage{Action: action, ConsumerID: consumerID}
}

// Produce appends content to one partition.
type Produce struct {
	Topic    TopicAddress
	Contents []Content
}

func (Produce) Tag() uint8 { return TagProduce }

func (a Produce) encodeBody(e *encoder) {
	e.writeString(a.Topic.Name)
	e.writeUint32(a.Topic.Partition)
	e.writeUint32(uint32(len(a.Contents)))
	for _, c := range a.Contents {
		e.writeString(string(c))
	}
}

func (a *Produce) decodeBody(d *decoder) error {
	name, err := d.readString()
	if err != nil {
		return err
	}
	partition, err := d.readUint32()
	if err != nil {
		return err
	}
	count, err := d.readUint32()
	if err != nil {
		return err
	}
	contents := make([]Content, 0, count)
	for i := uint32(0); i < count; i++ {
		s, err := d.readString()
		if err != nil {
			return err
		}
		contents = append(contents, Content(s))
	}
	a.Topic = TopicAddress{Name: name, Partition: partition}
	a.Contents = contents
	return nil
}

// Consume requests a range read starting at Offset, for up to Limit
// records.
type Consume struct {
	Topic  TopicAddress
	Offset OffsetValue
	Limit  uint32
}

func (Consume) Tag() uint8 { return TagConsume }

func (a Consume) encodeBody(e *encoder) {
	e.writeString(a.Topic.Name)
	e.writeUint32(a.Topic.Partition)
	e.writeUint32(uint32(a.Offset))
	e.writeUint32(a.Limit)
}

func (a *Consume) decodeBody(d *decoder) error {
	name, err := d.readString()
	if err != nil {
		return err
	}
	partition, err := d.readUint32()
	if err != nil {
		return err
	}
	offset, err := d.readUint32()
	if err != nil {
		return err
	}
	limit, err := d.readUint32()
	if err != nil {
		return err
	}
	a.Topic = TopicAddress{Name: name, Partition: partition}
	a.Offset = OffsetValue(offset)
	a.Limit = limit
	return nil
}

// CreateTopic creates PartitionCount empty partitions under TopicName,
// replacing any prior entry of the same name.
type CreateTopic struct {
	TopicName      string
	PartitionCount uint32
}

func (CreateTopic) Tag() uint8 { return TagCreateTopic }

func (a CreateTopic) encodeBody(e *encoder) {
	e.writeString(a.TopicName)
	e.writeUint32(a.PartitionCount)
}

func (a *CreateTopic) decodeBody(d *decoder) error {
	name, err := d.readString()
	if err != nil {
		return err
	}
	count, err := d.readUint32()
	if err != nil {
		return err
	}
	a.TopicName = name
	a.PartitionCount = count
	return nil
}

// InitializeController installs a local failure detector with id 0
// and notifies every other broker address in Brokers.
type InitializeController struct {
	Brokers []string
}

func (InitializeController) Tag() uint8 { return TagInitializeController }

func (a InitializeController) encodeBody(e *encoder) {
	e.writeUint32(uint32(len(a.Brokers)))
	for _, b := range a.Brokers {
		e.writeString(b)
	}
}

func (a *InitializeController) decodeBody(d *decoder) error {
	brokers, err := readStringList(d)
	if err != nil {
		return err
	}
	a.Brokers = brokers
	return nil
}

// InitializeBroker installs a local failure detector with the given
// SelfID and peer address list.
type InitializeBroker struct {
	SelfID  uint32
	Brokers []string
}

func (InitializeBroker) Tag() uint8 { return TagInitializeBroker }

func (a InitializeBroker) encodeBody(e *encoder) {
	e.writeUint32(a.SelfID)
	e.writeUint32(uint32(len(a.Brokers)))
	for _, b := range a.Brokers {
		e.writeString(b)
	}
}

func (a *InitializeBroker) decodeBody(d *decoder) error {
	selfID, err := d.readUint32()
	if err != nil {
		return err
	}
	brokers, err := readStringList(d)
	if err != nil {
		return err
	}
	a.SelfID = selfID
	a.Brokers = brokers
	return nil
}

// IamAlive is a heartbeat signal from SenderID.
type IamAlive struct {
	SenderID uint32
}

func (IamAlive) Tag() uint8 { return TagIamAlive }

func (a IamAlive) encodeBody(e *encoder) {
	e.writeUint32(a.SenderID)
}

func (a *IamAlive) decodeBody(d *decoder) error {
	id, err := d.readUint32()
	if err != nil {
		return err
	}
	a.SenderID = id
	return nil
}

// Quit asks the dispatcher to close the connection after replying.
type Quit struct{}

func (Quit) Tag() uint8                   { return TagQuit }
func (Quit) encodeBody(e *encoder)        {}
func (a *Quit) decodeBody(d *decoder) error { return nil }

// Invalid is the decode result for any unrecognized request tag.
type Invalid struct{}

func (Invalid) Tag() uint8                   { return TagInvalid }
func (Invalid) encodeBody(e *encoder)        {}
func (a *Invalid) decodeBody(d *decoder) error { return nil }

func readStringList(d *decoder) ([]string, error) {
	count, err := d.readUint32()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		s, err := d.readString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// EncodeAction serializes a full request frame.
func EncodeAction(m ActionMessage) []byte {
	e := &encoder{}
	e.writeUint8(m.Action.Tag())
	m.Action.encodeBody(e)
	e.writeString(m.ConsumerID)
	return e.bytes()
}

// DecodeAction parses exactly one request frame starting at byte 0 of
// buf; trailing bytes are ignored. Unrecognized tags decode as
// Invalid rather than failing.
func DecodeAction(buf []byte) (ActionMessage, error) {
	d := newDecoder(buf)
	tag, err := d.readUint8()
	if err != nil {
		return ActionMessage{}, err
	}

	var action Action
	switch tag {
	case TagProduce:
		a := &Produce{}
		if err := a.decodeBody(d); err != nil {
			return ActionMessage{}, err
		}
		action = a
	case TagConsume:
		a := &Consume{}
		if err := a.decodeBody(d); err != nil {
			return ActionMessage{}, err
		}
		action = a
	case TagCreateTopic:
		a := &CreateTopic{}
		if err := a.decodeBody(d); err != nil {
			return ActionMessage{}, err
		}
		action = a
	case TagInitializeController:
		a := &InitializeController{}
		if err := a.decodeBody(d); err != nil {
			return ActionMessage{}, err
		}
		action = a
	case TagInitializeBroker:
		a := &InitializeBroker{}
		if err := a.decodeBody(d); err != nil {
			return ActionMessage{}, err
		}
		action = a
	case TagIamAlive:
		a := &IamAlive{}
		if err := a.decodeBody(d); err != nil {
			return ActionMessage{}, err
		}
		action = a
	case TagQuit:
		action = &Quit{}
	default:
		action = &Invalid{}
	}

	consumerID, err := d.readString()
	if err != nil {
		return ActionMessage{}, err
	}

	return ActionMessage{Action: action, ConsumerID: consumerID}, nil
}
