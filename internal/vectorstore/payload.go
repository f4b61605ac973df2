package vectorstore

import (
	"github.com/qdrant/go-client/qdrant"
)

// Payload field keys as stored in Qdrant.
const (
	fieldTitle    = "title"
	fieldContent  = "content"
	fieldPreview  = "content_preview"
	fieldModified = "last_modified"
)

// pointID converts a PointID to the Qdrant wire representation.
func pointID(id PointID) *qdrant.PointId {
	if id.UUID != "" {
		return qdrant.NewIDUUID(id.UUID)
	}
	return qdrant.NewIDNum(id.Num)
}

// scoredPointID renders a scored point's id for results.
func scoredPointID(p *qdrant.ScoredPoint) string {
	if p.Id == nil {
		return ""
	}
	if uuid := p.Id.GetUuid(); uuid != "" {
		return uuid
	}
	return PointID{Num: p.Id.GetNum()}.String()
}

// payloadValues converts a Payload to Qdrant payload values.
func payloadValues(p Payload) map[string]*qdrant.Value {
	return map[string]*qdrant.Value{
		fieldTitle:    {Kind: &qdrant.Value_StringValue{StringValue: p.Title}},
		fieldContent:  {Kind: &qdrant.Value_StringValue{StringValue: p.Content}},
		fieldPreview:  {Kind: &qdrant.Value_StringValue{StringValue: p.Preview}},
		fieldModified: {Kind: &qdrant.Value_IntegerValue{IntegerValue: p.Modified}},
	}
}

// payloadFromValues reconstructs a Payload from Qdrant payload values.
// Unknown keys are ignored; missing keys leave zero values.
func payloadFromValues(values map[string]*qdrant.Value) Payload {
	var p Payload
	for k, v := range values {
		switch k {
		case fieldTitle:
			p.Title = v.GetStringValue()
		case fieldContent:
			p.Content = v.GetStringValue()
		case fieldPreview:
			p.Preview = v.GetStringValue()
		case fieldModified:
			p.Modified = v.GetIntegerValue()
		}
	}
	return p
}
