package services

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"tasboard/config"
	"tasboard/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var gzipMagic = []byte{0x1f, 0x8b}
var zipMagic = []byte("PK\x03\x04")

// IngestedMovie is the outcome of adapting an uploaded movie file: the parse
// result, the resolved system/frame-rate assignment, and canonical
// zip-wrapped bytes ready for storage.
type IngestedMovie struct {
	Parse             MovieParseResult
	SystemID          int
	SystemFrameRateID int
	CanonicalBytes    []byte
	StorageKey        string
}

// MovieIngestService adapts uploaded movie bytes into a validated parse
// result and maps it onto system and frame-rate records.
type MovieIngestService struct {
	db       *gorm.DB
	parser   MovieParser
	maxBytes int64
}

func NewMovieIngestService(db *gorm.DB, parser MovieParser, maxBytes int64) *MovieIngestService {
	if db == nil {
		db = config.DB
	}
	return &MovieIngestService{db: db, parser: parser, maxBytes: maxBytes}
}

// Ingest decompresses, size-checks, and parses an uploaded movie file, then
// resolves its system and frame rate. All failures are validation failures;
// nothing is persisted here.
func (s *MovieIngestService) Ingest(raw []byte, fileName string) (IngestedMovie, error) {
	payload := s.decompress(raw)

	if int64(len(payload)) > s.maxBytes {
		return IngestedMovie{}, fmt.Errorf("%w: movie file exceeds the %d byte limit", ErrValidationFailed, s.maxBytes)
	}
	if len(payload) == 0 {
		return IngestedMovie{}, fmt.Errorf("%w: empty movie file", ErrValidationFailed)
	}

	var result MovieParseResult
	var err error
	if bytes.HasPrefix(payload, zipMagic) {
		if err := s.checkArchiveSize(payload); err != nil {
			return IngestedMovie{}, err
		}
		result, err = s.parser.ParseZip(payload)
	} else {
		result, err = s.parser.Parse(payload, fileName)
	}
	if err != nil {
		return IngestedMovie{}, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if !result.Success {
		detail := strings.Join(result.Errors, "; ")
		if detail == "" {
			detail = "unparseable movie file"
		}
		return IngestedMovie{}, fmt.Errorf("%w: %s", ErrValidationFailed, detail)
	}

	systemID, frameRateID, err := s.resolveSystem(result)
	if err != nil {
		return IngestedMovie{}, err
	}

	canonical, err := canonicalZip(payload, fileName, result.FileExtension)
	if err != nil {
		return IngestedMovie{}, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	return IngestedMovie{
		Parse:             result,
		SystemID:          systemID,
		SystemFrameRateID: frameRateID,
		CanonicalBytes:    canonical,
		StorageKey:        uuid.NewString(),
	}, nil
}

// decompress gunzips the upload when it carries the gzip magic. Some clients
// send uncompressed payloads, so any decompression failure falls back to the
// raw bytes. The size ceiling is enforced on the decompressed output: the
// reader stops one byte past the limit so an oversized payload is detected,
// never silently truncated.
func (s *MovieIngestService) decompress(raw []byte) []byte {
	if !bytes.HasPrefix(raw, gzipMagic) {
		return raw
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return raw
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, s.maxBytes+1))
	if err != nil {
		return raw
	}
	return out
}

// checkArchiveSize rejects zip containers whose declared uncompressed sizes
// exceed the ceiling, before any entry is inflated.
func (s *MovieIngestService) checkArchiveSize(payload []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return fmt.Errorf("%w: corrupt zip container", ErrValidationFailed)
	}
	var total uint64
	for _, f := range zr.File {
		total += f.UncompressedSize64
		if total > uint64(s.maxBytes) {
			return fmt.Errorf("%w: archive inflates past the %d byte limit", ErrValidationFailed, s.maxBytes)
		}
	}
	return nil
}

// resolveSystem maps the parsed system code onto a system and frame-rate
// row. An explicit parser override finds or creates that exact triple;
// otherwise the system's default rate for the parsed region applies.
func (s *MovieIngestService) resolveSystem(result MovieParseResult) (int, int, error) {
	var system models.GameSystem
	if err := s.db.Where("code = ?", result.SystemCode).First(&system).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, fmt.Errorf("%w: unknown system code %q", ErrValidationFailed, result.SystemCode)
		}
		return 0, 0, err
	}

	if result.FrameRateOverride != nil {
		rate, err := s.findOrCreateFrameRate(system.SystemID, *result.FrameRateOverride, result.RegionCode)
		if err != nil {
			return 0, 0, err
		}
		return system.SystemID, rate.FrameRateID, nil
	}

	var rate models.GameSystemFrameRate
	err := s.db.
		Where("system_id = ? AND region_code = ? AND preliminary = ?", system.SystemID, result.RegionCode, false).
		Order("frame_rate_id").
		First(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, fmt.Errorf("%w: system %q has no default frame rate for region %q",
				ErrValidationFailed, result.SystemCode, result.RegionCode)
		}
		return 0, 0, err
	}
	return system.SystemID, rate.FrameRateID, nil
}

// findOrCreateFrameRate tolerates two uploads racing to create the same
// (system, rate, region) triple: a duplicate-key failure collapses into a
// re-query of the row the other writer committed.
func (s *MovieIngestService) findOrCreateFrameRate(systemID int, frameRate float64, regionCode string) (models.GameSystemFrameRate, error) {
	lookup := func() (models.GameSystemFrameRate, error) {
		var rate models.GameSystemFrameRate
		err := s.db.
			Where("system_id = ? AND frame_rate = ? AND region_code = ?", systemID, frameRate, regionCode).
			First(&rate).Error
		return rate, err
	}

	rate, err := lookup()
	if err == nil {
		return rate, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.GameSystemFrameRate{}, err
	}

	created := models.GameSystemFrameRate{
		SystemID:    systemID,
		FrameRate:   frameRate,
		RegionCode:  regionCode,
		Preliminary: true,
	}
	if createErr := s.db.Create(&created).Error; createErr != nil {
		rate, err = lookup()
		if err != nil {
			return models.GameSystemFrameRate{}, createErr
		}
		return rate, nil
	}
	return created, nil
}

// canonicalZip returns the payload zip-wrapped for uniform storage. Payloads
// that already are zip containers pass through unchanged.
func canonicalZip(payload []byte, fileName, extension string) ([]byte, error) {
	if bytes.HasPrefix(payload, zipMagic) {
		return payload, nil
	}

	entryName := filepath.Base(fileName)
	if entryName == "" || entryName == "." {
		entryName = "movie"
	}
	if extension != "" && !strings.HasSuffix(entryName, "."+extension) {
		entryName = strings.TrimSuffix(entryName, filepath.Ext(entryName)) + "." + extension
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.Create(entryName)
	if err != nil {
		return nil, err
	}
	if _, err := entry.Write(payload); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
