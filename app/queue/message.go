package queue

import "encoding/json"

const StreamName = "mailer:email:send-raw"
const ConsumerGroup = "email-consumers"

type EmailMessage struct {
	RequestID string
	Recipient string
	Cc        []string
	Bcc       []string
	Subject   string
	Content   string
}

// values flattens the message into stream fields. Cc and Bcc are JSON encoded
// because stream values are flat strings; empty lists are omitted.
func (m EmailMessage) values() (map[string]interface{}, error) {
	values := map[string]interface{}{
		"request_id": m.RequestID,
		"recipient":  m.Recipient,
		"subject":    m.Subject,
		"content":    m.Content,
	}
	if len(m.Cc) > 0 {
		data, err := json.Marshal(m.Cc)
		if err != nil {
			return nil, err
		}
		values["cc"] = string(data)
	}
	if len(m.Bcc) > 0 {
		data, err := json.Marshal(m.Bcc)
		if err != nil {
			return nil, err
		}
		values["bcc"] = string(data)
	}
	return values, nil
}

// emailMessageFromValues rebuilds a message from stream fields. Missing or
// malformed fields degrade to zero values; the service validates afterwards.
func emailMessageFromValues(values map[string]interface{}) EmailMessage {
	var msg EmailMessage
	msg.RequestID, _ = values["request_id"].(string)
	msg.Recipient, _ = values["recipient"].(string)
	msg.Subject, _ = values["subject"].(string)
	msg.Content, _ = values["content"].(string)
	msg.Cc = decodeAddressList(values["cc"])
	msg.Bcc = decodeAddressList(values["bcc"])
	return msg
}

func decodeAddressList(value interface{}) []string {
	raw, ok := value.(string)
	if !ok || raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}
