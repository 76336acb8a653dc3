package telemetry

import (
	"encoding/csv"
	"io"
	"strconv"
)

// TimeLayout is the timestamp format used in CSV exports.
const TimeLayout = "2006-01-02 15:04:05.000"

// CSVHeader is the first row of every export.
var CSVHeader = []string{
	"Timestamp",
	"Temperature (°C)",
	"Distance (cm)",
	"Accel X (m/s²)",
	"Accel Y (m/s²)",
	"Accel Z (m/s²)",
	"Gyro X (°/s)",
	"Gyro Y (°/s)",
	"Gyro Z (°/s)",
}

// WriteCSV writes the buffered entries to w. Unknown distances are left
// blank. It returns ErrNoData when the log is empty.
func (l *Logger) WriteCSV(w io.Writer) error {
	entries := l.Entries()
	if len(entries) == 0 {
		return ErrNoData
	}
	return writeCSV(w, entries)
}

func writeCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	row := make([]string, len(CSVHeader))
	for _, e := range entries {
		r := e.Reading
		row[0] = e.Time.Format(TimeLayout)
		row[1] = formatFloat(r.Temperature)
		row[2] = ""
		if r.Distance.Known() {
			row[2] = formatFloat(r.Distance.CM)
		}
		for i := 0; i < 3; i++ {
			row[3+i] = formatFloat(r.Accel[i])
			row[6+i] = formatFloat(r.Gyro[i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
