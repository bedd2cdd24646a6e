package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/phpdave11/gofpdf"

	"safety-card-bot/internal/domain/entity"
	"safety-card-bot/internal/domain/port"
	"safety-card-bot/internal/platform/hash"
	"safety-card-bot/internal/platform/id"
)

const (
	cardTitle      = "Safety Observation Card"
	checklistTitle = "Personal Protective Equipment Checklist"
	instructions   = "Instructions: The Safety Observation Card instructions involve informing the worker and completing the checklist prior to observation. " +
		"Post-observation, review positive safety behaviors and discuss areas for improvement."
)

// Ширины колонок чек-листа (мм), сумма = ширина страницы A4 минус поля.
var columnWidths = []float64{18, 46, 46, 24, 24, 24}

var columnHeaders = []string{"No.", "Checklist", "PPE", "N/A", "Safe", "Unsafe"}

// PDFRenderer рисует карточку наблюдения в PDF (A4).
type PDFRenderer struct {
	dir      string
	fontPath string
}

// NewPDFRenderer создаёт рендерер, который пишет файлы в dir.
// fontPath: TrueType-шрифт с поддержкой UTF-8; пустое значение = поиск системного.
func NewPDFRenderer(dir, fontPath string) *PDFRenderer {
	return &PDFRenderer{dir: dir, fontPath: fontPath}
}

// Render пишет PDF, затем считывает число страниц и SHA-256 готового файла.
// При ошибке недописанный файл удаляется.
func (r *PDFRenderer) Render(ctx context.Context, obs entity.Observation) (*entity.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir reports: %w", err)
	}

	name := obs.ID
	if name == "" {
		name = id.New("obs")
	}
	pdfPath := filepath.Join(r.dir, name+"_safety_card.pdf")

	pdf := r.build(obs)
	if err := pdf.OutputFileAndClose(pdfPath); err != nil {
		_ = os.Remove(pdfPath)
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	pages, err := api.PageCountFile(pdfPath)
	if err != nil {
		_ = os.Remove(pdfPath)
		return nil, fmt.Errorf("read back pdf: %w", err)
	}

	sum, _, err := hash.File(pdfPath)
	if err != nil {
		_ = os.Remove(pdfPath)
		return nil, fmt.Errorf("sha256 pdf: %w", err)
	}

	return &entity.Report{Path: pdfPath, SHA256: sum, Pages: pages}, nil
}

func (r *PDFRenderer) build(obs entity.Observation) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 14)
	pdf.SetTitle(cardTitle, false)

	font, utf8OK := initUnicodeFont(pdf, r.fontPath)
	text := func(s string) string { return safeText(s, utf8OK) }

	pdf.AddPage()

	boxTitle(pdf, font, cardTitle)
	pdf.Ln(4)

	// Инструкция курсивом в рамке
	pdf.SetFont(font, "I", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(211, 211, 211)
	pdf.MultiCell(0, 6, instructions, "1", "J", true)
	pdf.Ln(4)

	highlight(pdf, font, "Date:", text(obs.Date))
	highlight(pdf, font, "Time:", text(obs.Time))
	highlight(pdf, font, "Location:", text(obs.Location))
	pdf.Ln(4)

	boxTitle(pdf, font, checklistTitle)
	pdf.Ln(4)
	checklistTable(pdf, font, obs.Checklist, utf8OK)
	pdf.Ln(2)

	section(pdf, font, "Observation Description:", text(obs.Narrative.Description))
	section(pdf, font, "Recommended Interventions:", text(obs.Narrative.Interventions))
	section(pdf, font, "Positive Safety Behaviors:", text(obs.Narrative.PositiveBehaviours))
	section(pdf, font, "Identified Near Misses:", text(obs.Narrative.NearMisses))
	section(pdf, font, "Supervisor Name:", text(obs.Supervisor))

	return pdf
}

func boxTitle(pdf *gofpdf.Fpdf, font, title string) {
	pdf.SetFont(font, "B", 18)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(169, 169, 169)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.7)
	pdf.CellFormat(0, 11, title, "1", 1, "C", true, 0, "")
	pdf.SetLineWidth(0.2)
}

func highlight(pdf *gofpdf.Fpdf, font, key, value string) {
	pdf.SetFont(font, "B", 14)
	pdf.SetTextColor(0, 0, 139)
	pdf.CellFormat(30, 8, key, "", 0, "L", false, 0, "")
	pdf.MultiCell(0, 8, value, "", "L", false)
	pdf.Ln(2)
}

func checklistTable(pdf *gofpdf.Fpdf, font string, entries []entity.ChecklistEntry, utf8OK bool) {
	const rowHeight = 9

	pdf.SetFont(font, "B", 12)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(245, 245, 245)
	pdf.SetDrawColor(0, 0, 0)
	for i, h := range columnHeaders {
		pdf.CellFormat(columnWidths[i], rowHeight, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(font, "", 12)
	pdf.SetFillColor(245, 245, 220)
	pdf.SetTextColor(0, 0, 0)
	for i, e := range entries {
		row := []string{
			fmt.Sprintf("%d", i+1),
			safeText(e.Category, utf8OK),
			safeText(e.Item, utf8OK),
			marker(e.Status == entity.StatusNotApplicable, utf8OK),
			marker(e.Status == entity.StatusSafe, utf8OK),
			marker(e.Status == entity.StatusUnsafe, utf8OK),
		}
		for j, cell := range row {
			pdf.CellFormat(columnWidths[j], rowHeight, cell, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
}

func section(pdf *gofpdf.Fpdf, font, heading, body string) {
	pdf.Ln(3)
	pdf.SetFont(font, "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 8, heading, "", 1, "L", false, 0, "")

	pdf.SetFont(font, "", 12)
	pdf.SetFillColor(211, 211, 211)
	pdf.MultiCell(0, 6, body, "1", "J", true)
}

// marker однобуквенная отметка ячейки; без UTF-8 шрифта галочки заменяются на X.
func marker(checked, utf8OK bool) string {
	switch {
	case utf8OK && checked:
		return "☑"
	case utf8OK:
		return "☐"
	case checked:
		return "X"
	default:
		return ""
	}
}

// safeText убирает переводы строк, а без UTF-8 шрифта заменяет не-ASCII символы на '?'.
func safeText(s string, utf8OK bool) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.TrimSpace(s)
	if utf8OK {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 32 && r <= 126 {
			b.WriteRune(r)
		} else {
			b.WriteRune('?')
		}
	}
	return b.String()
}

// initUnicodeFont пытается подключить TrueType-шрифт с UTF-8.
// Сначала явный путь из настроек, потом типичные системные шрифты; иначе Helvetica.
func initUnicodeFont(pdf *gofpdf.Fpdf, preferred string) (family string, utf8OK bool) {
	const familyName = "unicode"

	candidates := []string{}
	if p := strings.TrimSpace(preferred); p != "" {
		candidates = append(candidates, p)
	}
	switch runtime.GOOS {
	case "darwin":
		candidates = append(candidates,
			"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
			"/Library/Fonts/Arial Unicode.ttf",
		)
	case "windows":
		candidates = append(candidates,
			`C:\Windows\Fonts\arialuni.ttf`,
			`C:\Windows\Fonts\seguisym.ttf`,
		)
	default:
		candidates = append(candidates,
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		)
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}

		pdf.AddUTF8Font(familyName, "", p)
		if pdf.Err() {
			pdf.ClearError()
			continue
		}
		// один файл на все начертания, иначе SetFont(..., "B"/"I") падает
		for _, style := range []string{"B", "I"} {
			pdf.AddUTF8Font(familyName, style, p)
			if pdf.Err() {
				pdf.ClearError()
			}
		}
		return familyName, true
	}

	return "Helvetica", false
}

// Проверка реализации интерфейса
var _ port.ReportRenderer = (*PDFRenderer)(nil)
