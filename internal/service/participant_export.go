package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
)

// Форматы выгрузки участников
const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

const exportSheetName = "Participants"

// utf8BOM нужен, чтобы Excel корректно открыл CSV с вьетнамскими символами
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var exportHeaders = []string{
	"ID", "Full name", "Phone", "Email", "Province", "District", "Pharmacy code",
	"Status", "Score", "Max score", "Passed", "Completion time (s)", "Gift code",
	"Registered at", "Completed at",
}

// Export выгружает участников кампании в CSV или XLSX
func (s *ParticipantService) Export(ctx context.Context, campaignID uint, filters repository.ParticipantFilters, format string, w io.Writer) error {
	if _, err := s.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return err
	}
	participants, err := s.participantRepo.ListAll(ctx, campaignID, filters)
	if err != nil {
		return err
	}

	switch format {
	case ExportFormatXLSX:
		err = writeParticipantsXLSX(w, participants)
	default:
		err = writeParticipantsCSV(w, participants)
	}
	if err != nil {
		s.logger.Error("[ParticipantService] Ошибка выгрузки участников",
			zap.Uint("campaign_id", campaignID), zap.String("format", format), zap.Error(err))
		return err
	}

	s.logger.Info("[ParticipantService] Участники выгружены",
		zap.Uint("campaign_id", campaignID), zap.String("format", format), zap.Int("rows", len(participants)))
	return nil
}

func exportRow(p *entity.Participant) []string {
	email := ""
	if p.Email != nil {
		email = *p.Email
	}
	giftCode := ""
	if p.GiftCode != nil {
		giftCode = *p.GiftCode
	}
	passed := "No"
	if p.Passed {
		passed = "Yes"
	}
	completedAt := ""
	if p.CompletedAt != nil {
		completedAt = p.CompletedAt.Format(time.DateTime)
	}

	return []string{
		strconv.FormatUint(uint64(p.ID), 10),
		sanitizeForExcel(p.FullName),
		sanitizeForExcel(p.Phone),
		sanitizeForExcel(email),
		sanitizeForExcel(p.Province),
		sanitizeForExcel(p.District),
		sanitizeForExcel(p.PharmacyCode),
		p.Status,
		strconv.Itoa(p.FinalScore),
		strconv.Itoa(p.MaxScore),
		passed,
		strconv.Itoa(p.CompletionTime),
		sanitizeForExcel(giftCode),
		p.CreatedAt.Format(time.DateTime),
		completedAt,
	}
}

func writeParticipantsCSV(w io.Writer, participants []entity.Participant) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeaders); err != nil {
		return err
	}
	for i := range participants {
		if err := writer.Write(exportRow(&participants[i])); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// writeParticipantsXLSX пишет книгу через StreamWriter, все ячейки строковые
func writeParticipantsXLSX(w io.Writer, participants []entity.Participant) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(exportSheetName)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	if err := sw.SetRow("A1", toCells(exportHeaders)); err != nil {
		return err
	}
	for i := range participants {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(exportRow(&participants[i]))); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// sanitizeForExcel экранирует значения, которые табличный редактор принял бы за формулу
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
