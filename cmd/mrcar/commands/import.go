package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/dryanez/MrcarCotizacion/internal/domain"
	"github.com/dryanez/MrcarCotizacion/internal/repo"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

// monthKeys maps Spanish month abbreviations found in registry export
// filenames (e.g. SGPRT_RB_oct-2025.csv) to a sortable number.
var monthKeys = map[string]int{
	"ene": 1, "feb": 2, "mar": 3, "abr": 4, "may": 5, "jun": 6,
	"jul": 7, "ago": 8, "sep": 9, "oct": 10, "nov": 11, "dic": 12,
}

var exportDateRE = regexp.MustCompile(`[_-](ene|feb|mar|abr|may|jun|jul|ago|sep|oct|nov|dic)[_-](\d{4})`)

// exportDateKey extracts a sortable YYYYMM key from an export filename,
// zero when no date token is present.
func exportDateKey(name string) int {
	m := exportDateRE.FindStringSubmatch(strings.ToLower(name))
	if m == nil {
		return 0
	}
	return mustAtoi(m[2])*100 + monthKeys[m[1]]
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Bulk-load SGPRT registry export CSVs into the vehicle store.",
	Long: `Bulk-load SGPRT registry export CSVs into the vehicle store.

Files are processed oldest first (by the month token in the filename) so a
plate appearing in several exports keeps the newest data. Expected columns:
COD_PRT, PPU, COD_VEHICULO, COD_COMBUSTIBLE, COD_SERVICIO, MARCA, MODELO,
ANO_FABRICACION.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStore(cfg)
		if err != nil {
			return err
		}

		entries, err := os.ReadDir(args[0])
		if err != nil {
			return fmt.Errorf("read export directory: %w", err)
		}
		var files []string
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasPrefix(name, "SGPRT") || !strings.HasSuffix(strings.ToLower(name), ".csv") {
				continue
			}
			files = append(files, name)
		}
		if len(files) == 0 {
			return fmt.Errorf("no SGPRT export files in %s", args[0])
		}
		// Oldest first so the newest export wins on plate collisions.
		sort.Slice(files, func(i, j int) bool {
			return exportDateKey(files[i]) < exportDateKey(files[j])
		})

		var total int64
		for i, name := range files {
			n, err := importFile(cmd, db, filepath.Join(args[0], name), name)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			total += n
			log.Info().Str("file", name).Int64("rows", n).Msgf("imported %d/%d", i+1, len(files))
		}
		fmt.Printf("Imported %d vehicle rows from %d files\n", total, len(files))
		return nil
	},
}

// importFile loads one export CSV, upserting row by row. Rows without a
// plate are skipped; malformed numeric cells degrade to zero values rather
// than aborting the whole file.
func importFile(cmd *cobra.Command, db *gorm.DB, path, sourceFile string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // exports occasionally carry trailing columns

	var rows int64
	header := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}
		if header {
			header = false
			continue
		}
		if len(rec) < 8 {
			continue
		}
		plate := domain.NormalizePlate(rec[1])
		if plate == "" {
			continue
		}
		v := &domain.Vehicle{
			Plate:           plate,
			Make:            strings.TrimSpace(rec[5]),
			Model:           strings.TrimSpace(rec[6]),
			Year:            mustAtoi(strings.TrimSpace(rec[7])),
			VehicleTypeCode: strings.TrimSpace(rec[2]),
			FuelCode:        strings.TrimSpace(rec[3]),
			ServiceCode:     strings.TrimSpace(rec[4]),
			RegionCode:      strings.TrimSpace(rec[0]),
			SourceFile:      sourceFile,
		}
		if err := repo.UpsertVehicle(cmd.Context(), db, v); err != nil {
			return rows, err
		}
		rows++
	}
	return rows, nil
}
