package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"p9e.in/sitedpr/config"
	"p9e.in/sitedpr/models"
)

// ExportDPRRegister streams an xlsx register of DPRs, one row per
// report, with a second sheet summarising vendor headcounts. Filters:
// project_id, from, to (YYYY-MM-DD).
func ExportDPRRegister(w http.ResponseWriter, r *http.Request) {
	q := config.DB.Model(&models.DPR{}).Order("dpr_date ASC")
	wq := config.DB.Model(&models.WorkerLog{}).Order("date ASC")

	if pid := r.URL.Query().Get("project_id"); pid != "" {
		id, err := parseID(pid)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q = q.Where("project_id = ?", id)
		wq = wq.Where("project_id = ?", id)
	}
	if from := r.URL.Query().Get("from"); from != "" {
		q = q.Where("dpr_date >= ?", from)
		wq = wq.Where("date >= ?", from)
	}
	if to := r.URL.Query().Get("to"); to != "" {
		q = q.Where("dpr_date <= ?", to)
		wq = wq.Where("date <= ?", to)
	}

	var dprs []models.DPR
	if err := q.Find(&dprs).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var logs []models.WorkerLog
	if err := wq.Find(&logs).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "DPR Register"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Supervisor", "Status", "Manpower", "Images",
		"Activities", "Progress Notes", "Weather", "Issues", "Submitted At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	f.SetRowStyle(sheet, 1, 1, headerStyle)

	for i, d := range dprs {
		row := i + 2
		submitted := ""
		if d.SubmittedAt != nil {
			submitted = d.SubmittedAt.Format("2006-01-02 15:04")
		}
		values := []interface{}{
			d.DPRDate, d.SupervisorName, string(d.Status), d.ManpowerCount,
			len(d.Images), strings.Join(d.ActivitiesCompleted, "; "),
			d.ProgressNotes, d.WeatherConditions, d.IssuesEncountered, submitted,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	const workerSheet = "Worker Summary"
	f.NewSheet(workerSheet)
	workerHeaders := []string{"Date", "Supervisor", "Vendor", "Workers", "Skill", "Remarks"}
	for i, h := range workerHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(workerSheet, cell, h)
	}
	f.SetRowStyle(workerSheet, 1, 1, headerStyle)

	row := 2
	for _, l := range logs {
		for _, e := range l.Entries {
			values := []interface{}{l.Date, l.SupervisorName, e.VendorName,
				e.WorkersCount, e.SkillType, e.Remarks}
			for j, v := range values {
				cell, _ := excelize.CoordinatesToCellName(j+1, row)
				f.SetCellValue(workerSheet, cell, v)
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		http.Error(w, "failed to build workbook: "+err.Error(), http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("dpr_register_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write(buf.Bytes())
}
