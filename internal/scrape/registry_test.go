package scrape

import (
	"context"
	"errors"
	"testing"
)

const registryResultHTML = `
<html><body>
<table id="tbl-results">
  <tr><td colspan="2">Información Vehicular</td></tr>
  <tr><td>Marca</td><td>CHEVROLET</td></tr>
  <tr><td>Modelo</td><td>AVEO II LS 1.4</td></tr>
  <tr><td>Año</td><td>2012</td></tr>
  <tr><td>Tipo</td><td>AUTOMOVIL</td></tr>
  <tr><td>Combustible</td><td>GASOLINA</td></tr>
  <tr><td colspan="2">Datos del Propietario</td></tr>
  <tr><td>Nombre</td><td>JUAN PEREZ SOTO</td></tr>
  <tr><td>RUT</td><td>12.345.678-5</td></tr>
  <tr><td colspan="2">Permiso de Circulación</td></tr>
  <tr><td>Año</td><td>2026 (PAGO TOTAL)</td></tr>
</table>
</body></html>`

func TestParseRegistryHTML_FullRecord(t *testing.T) {
	v, err := parseRegistryHTML(registryResultHTML, "table#tbl-results", "example.test")
	if err != nil {
		t.Fatalf("parseRegistryHTML: %v", err)
	}
	if v.Make != "CHEVROLET" || v.Model != "AVEO II LS 1.4" {
		t.Errorf("make/model = %q/%q", v.Make, v.Model)
	}
	// The payment section repeats "Año"; only the vehicle section's value
	// may win.
	if v.Year != 2012 {
		t.Errorf("year = %d, want 2012", v.Year)
	}
	if v.VehicleTypeCode != "AUTOMOVIL" || v.FuelCode != "GASOLINA" {
		t.Errorf("type/fuel = %q/%q", v.VehicleTypeCode, v.FuelCode)
	}
	if v.OwnerName != "JUAN PEREZ SOTO" || v.OwnerRUT != "12.345.678-5" {
		t.Errorf("owner = %q/%q", v.OwnerName, v.OwnerRUT)
	}
}

func TestParseRegistryHTML_YearIgnoredOutsideVehicleSection(t *testing.T) {
	html := `
<table id="tbl-results">
  <tr><td colspan="2">Permiso de Circulación</td></tr>
  <tr><td>Año</td><td>2026</td></tr>
</table>`
	v, err := parseRegistryHTML(html, "table#tbl-results", "example.test")
	if err != nil {
		t.Fatalf("parseRegistryHTML: %v", err)
	}
	if v.Year != 0 {
		t.Fatalf("year = %d, want 0 (no vehicle section)", v.Year)
	}
}

func TestParseRegistryHTML_MissingTableIsTransient(t *testing.T) {
	_, err := parseRegistryHTML("<html><body><p>mantenimiento</p></body></html>", "table#tbl-results", "example.test")
	if err == nil || !IsTransient(err) {
		t.Fatalf("expected transient error for missing table, got %v", err)
	}
}

func TestParseRegistryHTML_StripsNonBreakingSpace(t *testing.T) {
	html := `
<table id="tbl-results">
  <tr><td colspan="2">Información Vehicular</td></tr>
  <tr><td>Marca</td><td>&nbsp;KIA&nbsp;</td></tr>
</table>`
	v, err := parseRegistryHTML(html, "table#tbl-results", "example.test")
	if err != nil {
		t.Fatalf("parseRegistryHTML: %v", err)
	}
	if v.Make != "KIA" {
		t.Fatalf("make = %q, want KIA", v.Make)
	}
}

func TestWithRetry_TransientOnly(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, 0, func() error {
		calls++
		return transientErr("example.test", "boom", nil)
	})
	if !IsTransient(err) {
		t.Fatalf("expected transient error after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}

	calls = 0
	err = withRetry(context.Background(), 3, 0, func() error {
		calls++
		return ErrNotFound
	})
	if !errors.Is(err, ErrNotFound) || calls != 1 {
		t.Fatalf("non-transient must not be retried: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = withRetry(context.Background(), 3, 0, func() error {
		calls++
		if calls < 2 {
			return transientErr("example.test", "flaky", nil)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("expected success on second attempt: err=%v calls=%d", err, calls)
	}
}

func TestScrapeError_Formatting(t *testing.T) {
	base := errors.New("timeout")
	err := transientErr("example.test", "wait results", base)
	if err.Error() != "scrape example.test: wait results: timeout" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected unwrap to reach the cause")
	}

	bare := transientErr("example.test", "results table missing", nil)
	if bare.Error() != "scrape example.test: results table missing" {
		t.Fatalf("Error() = %q", bare.Error())
	}
}
