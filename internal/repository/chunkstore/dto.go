package chunkstore

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Hash field names. fieldTenant and fieldVector are indexed; the rest are
// returned by searches and point reads only.
const (
	fieldTenant  = "tenant"
	fieldVector  = "vector"
	fieldParent  = "parent_id"
	fieldContent = "content"
	fieldSource  = "source"
	fieldPage    = "page"
)

const (
	parentKeyPrefix = domain.KeyPrefix + "parent:"
	childKeyPrefix  = domain.KeyPrefix + "child:"
)

func parentKey(id string) string { return parentKeyPrefix + id }
func childKey(id string) string  { return childKeyPrefix + id }

func buildParentFields(p *domain.Parent) map[string]string {
	return map[string]string{
		fieldTenant:  p.TenantID,
		fieldSource:  p.Source,
		fieldPage:    strconv.Itoa(p.Page),
		fieldContent: p.Content,
	}
}

func parseParentFields(id string, m map[string]string) domain.Parent {
	page, _ := strconv.Atoi(m[fieldPage])
	return domain.Parent{
		ID:       id,
		TenantID: m[fieldTenant],
		Source:   m[fieldSource],
		Page:     page,
		Content:  m[fieldContent],
	}
}

func buildChildFields(c *domain.Child) map[string]string {
	return map[string]string{
		fieldTenant:  c.TenantID,
		fieldParent:  c.ParentID,
		fieldContent: c.Content,
		fieldVector:  vectorToBytes(c.Vector),
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
