package schema

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const clinicSchema = `// MedFlow data model
datasource db {
  provider = "postgresql"
  url      = env("DATABASE_URL")
}

generator client {
  provider = "prisma-client-js"
}

enum AppointmentStatus {
  SCHEDULED
  COMPLETED
  CANCELLED
  NO_SHOW
}

model Clinic {
  id        String   @id @default(cuid())
  name      String
  phone     String?
  createdAt DateTime @default(now())
  patients  Patient[]
  settings  Json?

  @@index([name])
}

model Appointment {
  id        Int               @id @default(autoincrement())
  clinicId  String
  clinic    Clinic            @relation(fields: [clinicId], references: [id])
  startsAt  DateTime
  status    AppointmentStatus @default(SCHEDULED)
  fee       Decimal
  paid      Boolean           // settled via invoice
}
`

func TestParse_Models(t *testing.T) {
	t.Parallel()
	set, err := Parse(clinicSchema)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := set.ModelNames(); !reflect.DeepEqual(got, []string{"Appointment", "Clinic"}) {
		t.Fatalf("model names: got %v", got)
	}

	clinic := set.Models["Clinic"]
	if want := []string{"name", "patients"}; !reflect.DeepEqual(clinic.Required, want) {
		t.Fatalf("clinic required: want %v got %v", want, clinic.Required)
	}
	if _, ok := clinic.Properties["@@index([name])"]; ok {
		t.Fatalf("block attribute parsed as a field")
	}
	if got := clinic.Properties["createdAt"]; got["format"] != "date-time" || got["type"] != "string" {
		t.Fatalf("createdAt schema: %v", got)
	}
	patients := clinic.Properties["patients"]
	if patients["type"] != "array" {
		t.Fatalf("patients should be array, got %v", patients)
	}
	items, _ := patients["items"].(map[string]any)
	if items["$ref"] != "#/components/schemas/Patient" {
		t.Fatalf("patients items ref: %v", items)
	}
	if clinic.Properties["settings"]["type"] != "object" {
		t.Fatalf("Json should map to object: %v", clinic.Properties["settings"])
	}

	appt := set.Models["Appointment"]
	if want := []string{"clinicId", "clinic", "startsAt", "fee", "paid"}; !reflect.DeepEqual(appt.Required, want) {
		t.Fatalf("appointment required: want %v got %v", want, appt.Required)
	}
	if appt.Properties["id"]["type"] != "integer" {
		t.Fatalf("Int should map to integer: %v", appt.Properties["id"])
	}
	if fee := appt.Properties["fee"]; fee["type"] != "string" || fee["format"] != "decimal" {
		t.Fatalf("Decimal mapping: %v", fee)
	}
	if appt.Properties["status"]["$ref"] != "#/components/schemas/AppointmentStatus" {
		t.Fatalf("enum field should be a ref: %v", appt.Properties["status"])
	}
}

func TestParse_EnumsAndComponents(t *testing.T) {
	t.Parallel()
	set, err := Parse(clinicSchema)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	enum := set.Enums["AppointmentStatus"]
	if enum == nil || !reflect.DeepEqual(enum.Values, []string{"SCHEDULED", "COMPLETED", "CANCELLED", "NO_SHOW"}) {
		t.Fatalf("enum values: %+v", enum)
	}
	comps := set.Components()
	for _, name := range []string{"Clinic", "Appointment", "AppointmentStatus"} {
		if _, ok := comps[name]; !ok {
			t.Fatalf("components missing %s", name)
		}
	}
	clinic := comps["Clinic"].(map[string]any)
	if clinic["type"] != "object" {
		t.Fatalf("model component type: %v", clinic["type"])
	}
}

func TestParse_UnclosedBlock(t *testing.T) {
	t.Parallel()
	_, err := Parse("model Broken {\n  id String @id\n")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Line != 1 {
		t.Fatalf("expected error at line 1, got %d", pe.Line)
	}
}

func TestParse_StrayLinesKeepOtherBlocks(t *testing.T) {
	t.Parallel()
	src := `this is not a schema

model Clinic {
  id   String @id
  name String
}

model AuditLog {}

model Staff
{
  email String
}

enum Placeholder { }
`
	set, err := Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := set.ModelNames(); !reflect.DeepEqual(got, []string{"AuditLog", "Clinic", "Staff"}) {
		t.Fatalf("model names: %v", got)
	}
	if got := set.Models["Staff"].Required; !reflect.DeepEqual(got, []string{"email"}) {
		t.Fatalf("brace on the next line: required %v", got)
	}
	if len(set.Models["AuditLog"].Properties) != 0 || set.Enums["Placeholder"] == nil {
		t.Fatalf("single-line blocks: %+v %+v", set.Models["AuditLog"], set.Enums)
	}
	if len(set.Warnings) != 1 || set.Warnings[0].Line != 1 || !strings.Contains(set.Warnings[0].Error(), "outside a block") {
		t.Fatalf("want one warning for line 1, got %v", set.Warnings)
	}
}

func TestParse_HeaderWithoutBrace(t *testing.T) {
	t.Parallel()
	set, err := Parse("model Orphan\nmodel Clinic {\n  id String @id\n}\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := set.Models["Clinic"]; !ok || len(set.Models) != 1 {
		t.Fatalf("models: %v", set.ModelNames())
	}
	if len(set.Warnings) != 1 || set.Warnings[0].Line != 1 {
		t.Fatalf("dangling header should warn at line 1: %v", set.Warnings)
	}
}

func TestParse_UnsupportedType(t *testing.T) {
	t.Parallel()
	set, err := Parse("model Document {\n  id     Int @id\n  search Unsupported(\"tsvector\")?\n  tags   Unsupported(\"ltree\")[]\n}\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	doc := set.Models["Document"]
	if got := doc.Properties["search"]; len(got) != 0 {
		t.Fatalf("Unsupported should map to the empty schema, got %v", got)
	}
	items, _ := doc.Properties["tags"]["items"].(map[string]any)
	if doc.Properties["tags"]["type"] != "array" || items == nil || len(items) != 0 {
		t.Fatalf("Unsupported list: %v", doc.Properties["tags"])
	}
}

func TestParseFile_Missing(t *testing.T) {
	t.Parallel()
	if _, err := ParseFile(filepath.Join(t.TempDir(), "schema.prisma")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestEmptySet(t *testing.T) {
	t.Parallel()
	set, err := Parse("// nothing here\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !set.Empty() || set.Components() != nil {
		t.Fatalf("expected empty set")
	}
}
