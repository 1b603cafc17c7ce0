package mapper

import (
	"encoding/json"
	"fmt"

	"care-triage-be/internal/entity"
	"care-triage-be/internal/model"

	"gorm.io/datatypes"
)

type CaseMapper struct{}

func NewCaseMapper() *CaseMapper {
	return &CaseMapper{}
}

func (m *CaseMapper) ToModel(record *entity.CaseRecord) (*model.Case, error) {
	if record == nil {
		return nil, fmt.Errorf("case mapper: nil record")
	}
	doc, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("case mapper: encode %s: %w", record.CaseId, err)
	}
	return &model.Case{
		Id:        record.CaseId,
		Status:    string(record.Status),
		Document:  datatypes.JSON(doc),
		CreatedAt: record.CreatedAt,
	}, nil
}

func (m *CaseMapper) ToEntity(c *model.Case) (*entity.CaseRecord, error) {
	if c == nil {
		return nil, nil
	}
	var record entity.CaseRecord
	if err := json.Unmarshal(c.Document, &record); err != nil {
		return nil, fmt.Errorf("case mapper: decode %s: %w", c.Id, err)
	}
	// The row key is authoritative.
	record.CaseId = c.Id
	return &record, nil
}
