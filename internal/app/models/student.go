package models

import (
	"time"
)

// Student is a single student's record within one academic year
type Student struct {
	ID           string         `json:"id" db:"id" example:"6f1c2a9e-8a55-4d3c-9d62-2f7f0a4b1c11"` // Assigned at creation, immutable
	AcademicYear string         `json:"academicYear" db:"academic_year" example:"2024/2025"`       // Partition key, immutable
	CreatedAt    time.Time      `json:"createdAt" db:"created_at" example:"2024-07-15T08:30:00Z"`  // Immutable
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at" example:"2024-07-16T10:00:00Z"`  // Set on every mutation
	Profile      StudentProfile `json:"profile" db:"data"`                                         // Demographic and family data
}

// StudentProfile holds every editable field of a student record.
//
// Field order matches the export column order. The label tag is the column
// header, the export tag flags columns rendered as text and/or centered.
type StudentProfile struct {
	// Personal
	FullName   string `json:"fullName" label:"Nama Lengkap" validate:"required,min=2"`
	Gender     string `json:"gender" label:"Jenis Kelamin" validate:"required" export:"center"`
	NISN       string `json:"nisn" label:"NISN" validate:"omitempty,digits" export:"text,center"`
	Kelas      string `json:"kelas" label:"Kelas"`
	BirthPlace string `json:"birthPlace" label:"Tempat Lahir"`
	BirthDate  string `json:"birthDate" label:"Tanggal Lahir" validate:"omitempty,isodate" export:"center,date"`
	NIK        string `json:"nik" label:"NIK" validate:"omitempty,digits" export:"text,center"`
	Religion   string `json:"religion" label:"Agama" validate:"required"`

	// Address
	Address    string `json:"address" label:"Alamat"`
	RT         string `json:"rt" label:"RT" export:"text,center"`
	RW         string `json:"rw" label:"RW" export:"text,center"`
	Dusun      string `json:"dusun" label:"Dusun"`
	Kelurahan  string `json:"kelurahan" label:"Kelurahan"`
	Kecamatan  string `json:"kecamatan" label:"Kecamatan"`
	PostalCode string `json:"postalCode" label:"Kode Pos" export:"text,center"`

	// Contact
	ResidenceType string `json:"residenceType" label:"Jenis Tinggal" validate:"required"`
	TransportMode string `json:"transportMode" label:"Alat Transportasi" validate:"required"`
	Phone         string `json:"phone" label:"Telepon" export:"text"`
	MobilePhone   string `json:"mobilePhone" label:"No. HP" validate:"required" export:"text"`

	// Father
	FatherName       string `json:"fatherName" label:"Nama Ayah" validate:"required"`
	FatherBirthYear  string `json:"fatherBirthYear" label:"Tahun Lahir Ayah" export:"text,center"`
	FatherEducation  string `json:"fatherEducation" label:"Pendidikan Ayah"`
	FatherOccupation string `json:"fatherOccupation" label:"Pekerjaan Ayah"`
	FatherIncome     string `json:"fatherIncome" label:"Penghasilan Ayah"`
	FatherNIK        string `json:"fatherNik" label:"NIK Ayah" validate:"omitempty,digits" export:"text,center"`

	// Mother
	MotherName       string `json:"motherName" label:"Nama Ibu" validate:"required"`
	MotherBirthYear  string `json:"motherBirthYear" label:"Tahun Lahir Ibu" export:"text,center"`
	MotherEducation  string `json:"motherEducation" label:"Pendidikan Ibu"`
	MotherOccupation string `json:"motherOccupation" label:"Pekerjaan Ibu"`
	MotherIncome     string `json:"motherIncome" label:"Penghasilan Ibu"`
	MotherNIK        string `json:"motherNik" label:"NIK Ibu" validate:"omitempty,digits" export:"text,center"`

	// Guardian
	GuardianName       string `json:"guardianName" label:"Nama Wali"`
	GuardianBirthYear  string `json:"guardianBirthYear" label:"Tahun Lahir Wali" export:"text,center"`
	GuardianEducation  string `json:"guardianEducation" label:"Pendidikan Wali"`
	GuardianOccupation string `json:"guardianOccupation" label:"Pekerjaan Wali"`
	GuardianIncome     string `json:"guardianIncome" label:"Penghasilan Wali"`
	GuardianNIK        string `json:"guardianNik" label:"NIK Wali" validate:"omitempty,digits" export:"text,center"`

	// Supplementary
	KKNumber              string `json:"kkNumber" label:"No. KK" validate:"omitempty,digits" export:"text,center"`
	ChildOrder            string `json:"childOrder" label:"Anak ke-" export:"text,center"`
	SiblingsCount         string `json:"siblingsCount" label:"Jml Saudara Kandung" export:"text,center"`
	PreviousSchool        string `json:"previousSchool" label:"Sekolah Asal"`
	BirthCertificateRegNo string `json:"birthCertificateRegNo" label:"No. Registrasi Akta Lahir" export:"text"`
	KIPNumber             string `json:"kipNumber" label:"Nomor KIP" export:"text"`
	KIPName               string `json:"kipName" label:"Nama di KIP"`
	KKSPKHNumber          string `json:"kksPkhNumber" label:"Nomor KKS/PKH" export:"text"`
	Weight                string `json:"weight" label:"Berat Badan (kg)" export:"text,center"`
	Height                string `json:"height" label:"Tinggi Badan (cm)" export:"text,center"`
	HeadCircumference     string `json:"headCircumference" label:"Lingkar Kepala (cm)" export:"text,center"`
}

// StudentPage is one page of a cursor-paginated listing
type StudentPage struct {
	Records    []Student `json:"records"`
	NextCursor string    `json:"nextCursor,omitempty"` // Empty when HasMore is false
	HasMore    bool      `json:"hasMore"`
}

// Option lists offered for the constrained profile fields.
var (
	GenderOptions        = []string{"Laki-laki", "Perempuan"}
	ReligionOptions      = []string{"Islam", "Kristen", "Katolik", "Hindu", "Buddha", "Konghucu", "Lainnya"}
	ResidenceTypeOptions = []string{"Bersama Orang Tua", "Wali", "Kos", "Asrama", "Panti Asuhan", "Lainnya"}
	TransportModeOptions = []string{"Jalan Kaki", "Sepeda", "Sepeda Motor", "Mobil Pribadi", "Angkutan Umum", "Lainnya"}
	EducationOptions     = []string{"Tidak Sekolah", "SD", "SMP", "SMA", "D1", "D2", "D3", "D4", "S1", "S2", "S3"}
	OccupationOptions    = []string{"Tidak Bekerja", "Petani", "Buruh", "PNS", "Wiraswasta", "Lainnya"}
	IncomeOptions        = []string{"< 500rb", "500rb-1jt", "1jt-2jt", "2jt-5jt", "> 5jt", "Tidak Berpenghasilan"}
)

// fieldOptions maps a profile field to the values offered for it.
// The lists are suggestions for forms; free text is still accepted.
var fieldOptions = map[string][]string{
	"gender":             GenderOptions,
	"religion":           ReligionOptions,
	"residenceType":      ResidenceTypeOptions,
	"transportMode":      TransportModeOptions,
	"fatherEducation":    EducationOptions,
	"motherEducation":    EducationOptions,
	"guardianEducation":  EducationOptions,
	"fatherOccupation":   OccupationOptions,
	"motherOccupation":   OccupationOptions,
	"guardianOccupation": OccupationOptions,
	"fatherIncome":       IncomeOptions,
	"motherIncome":       IncomeOptions,
	"guardianIncome":     IncomeOptions,
}
