package protocol

// Response tags, as they appear on the wire.
const (
	TagEmpty            uint8 = 0
	TagContent          uint8 = 1
	TagOffset           uint8 = 2
	TagError            uint8 = 3
	TagAskTheController uint8 = 4
)

// Response is one response variant.
type Response interface {
	Tag() uint8
	encodeBody(e *encoder)
	decodeBody(d *decoder) error
}

// ResponseMessage wraps a single Response. Multiple ResponseMessages
// may be concatenated into one transport buffer; see DecodeResponses.
type ResponseMessage struct {
	Response Response
}

func NewResponseMessage(r Response) ResponseMessage {
	return ResponseMessage{Response: r}
}

func NewEmptyResponse() ResponseMessage {
	return ResponseMessage{Response: &Empty{}}
}

// Empty terminates a pipelined response buffer.
type Empty struct{}

func (Empty) Tag() uint8                     { return TagEmpty }
func (Empty) encodeBody(e *encoder)          {}
func (r *Empty) decodeBody(d *decoder) error { return nil }

// ContentResponse carries one record at the given offset.
type ContentResponse struct {
	Offset OffsetValue
	Value  Content
}

func (ContentResponse) Tag() uint8 { return TagContent }

func (r ContentResponse) encodeBody(e *encoder) {
	e.writeUint32(uint32(r.Offset))
	e.writeString(string(r.Value))
}

func (r *ContentResponse) decodeBody(d *decoder) error {
	offset, err := d.readUint32()
	if err != nil {
		return err
	}
	value, err := d.readString()
	if err != nil {
		return err
	}
	r.Offset = OffsetValue(offset)
	r.Value = Content(value)
	return nil
}

// OffsetResponse carries the offset of the last appended record.
type OffsetResponse struct {
	Offset OffsetValue
}

func (OffsetResponse) Tag() uint8 { return TagOffset }

func (r OffsetResponse) encodeBody(e *encoder) {
	e.writeUint32(uint32(r.Offset))
}

func (r *OffsetResponse) decodeBody(d *decoder) error {
	offset, err := d.readUint32()
	if err != nil {
		return err
	}
	r.Offset = OffsetValue(offset)
	return nil
}

// ErrorResponse signals an unknown topic or out-of-range partition.
type ErrorResponse struct{}

func (ErrorResponse) Tag() uint8                     { return TagError }
func (ErrorResponse) encodeBody(e *encoder)          {}
func (r *ErrorResponse) decodeBody(d *decoder) error { return nil }

// AskTheControllerResponse points the caller at the current
// controller's address. Not emitted by the dispatcher today, but part
// of the wire contract (a future redirect-on-write feature could use
// it without a wire change).
type AskTheControllerResponse struct {
	ControllerAddress string
}

func (AskTheControllerResponse) Tag() uint8 { return TagAskTheController }

func (r AskTheControllerResponse) encodeBody(e *encoder) {
	e.writeString(r.ControllerAddress)
}

func (r *AskTheControllerResponse) decodeBody(d *decoder) error {
	addr, err := d.readString()
	if err != nil {
		return err
	}
	r.ControllerAddress = addr
	return nil
}

// EncodeResponse serializes a single self-contained response frame.
func EncodeResponse(m ResponseMessage) []byte {
	e := &encoder{}
	e.writeUint8(m.Response.Tag())
	m.Response.encodeBody(e)
	return e.bytes()
}

// EncodeResponses concatenates a sequence of response frames for one
// TCP write, i.e. it pipelines multiple responses inside a single
// transport buffer.
func EncodeResponses(ms []ResponseMessage) []byte {
	var out []byte
	for _, m := range ms {
		out = append(out, EncodeResponse(m)...)
	}
	return out
}

// DecodeResponses repeatedly parses responses until it hits tag 0
// (Empty, included in the result as the terminator) or the buffer
// ends. An unrecognized tag is treated the same as tag 0: it decodes
// as Empty and terminates the list.
func DecodeResponses(buf []byte) ([]ResponseMessage, error) {
	var result []ResponseMessage
	d := newDecoder(buf)

	for {
		tag, err := d.readUint8()
		if err != nil {
			// Nothing left to parse; buffer end without an explicit
			// Empty terminator is a valid end-of-list per spec.
			return result, nil
		}

		var resp Response
		terminal := false

		switch tag {
		case TagContent:
			r := &ContentResponse{}
			if err := r.decodeBody(d); err != nil {
				return nil, err
			}
			resp = r
		case TagOffset:
			r := &OffsetResponse{}
			if err := r.decodeBody(d); err != nil {
				return nil, err
			}
			resp = r
		case TagError:
			resp = &ErrorResponse{}
		case TagAskTheController:
			r := &AskTheControllerResponse{}
			if err := r.decodeBody(d); err != nil {
				return nil, err
			}
			resp = r
		default:
			resp = &Empty{}
			terminal = true
		}

		result = append(result, ResponseMessage{Response: resp})

		if terminal || d.finishedRead() {
			return result, nil
		}
	}
}
