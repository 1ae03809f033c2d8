package database

import (
	"time"

	"github.com/jackc/pgtype"
)

// StationSetup maps the numeric station id used by the climate tables to
// the ASOS station code used by the hourly table.
type StationSetup struct {
	StationID   int    `gorm:"primaryKey;column:station_id"`
	StationCode string `gorm:"column:station_code;not null;unique"`
	StationName string `gorm:"column:station_name"`
}

func (StationSetup) TableName() string {
	return StationSetupTable
}

// DailyClimate is one day of observed climate data for a station.
type DailyClimate struct {
	StationID  int       `gorm:"primaryKey;column:station_id"`
	Date       time.Time `gorm:"primaryKey;column:date;type:date"`
	MaxTemp    int       `gorm:"column:max_temp"`
	MinTemp    int       `gorm:"column:min_temp"`
	Precip     float64   `gorm:"column:precip"`
	Snow       float64   `gorm:"column:snow"`
	SnowGround float64   `gorm:"column:snow_ground"`
	HeatDays   int       `gorm:"column:num_heat"`
	CoolDays   int       `gorm:"column:num_cool"`
}

func (DailyClimate) TableName() string {
	return DailyClimateTable
}

// DayClimateNorm holds the normals and records for one day of the year.
// DayOfYear is the "MM-dd" key.
type DayClimateNorm struct {
	StationID       int     `gorm:"primaryKey;column:station_id"`
	DayOfYear       string  `gorm:"primaryKey;column:day_of_year"`
	MeanTemp        float64 `gorm:"column:mean_temp"`
	MaxTempRecord   int     `gorm:"column:max_temp_record"`
	MaxTempMean     float64 `gorm:"column:max_temp_mean"`
	MinTempRecord   int     `gorm:"column:min_temp_record"`
	MinTempMean     float64 `gorm:"column:min_temp_mean"`
	MaxTempRecYr1   int     `gorm:"column:max_temp_rec_yr1"`
	MaxTempRecYr2   int     `gorm:"column:max_temp_rec_yr2"`
	MaxTempRecYr3   int     `gorm:"column:max_temp_rec_yr3"`
	MinTempRecYr1   int     `gorm:"column:min_temp_rec_yr1"`
	MinTempRecYr2   int     `gorm:"column:min_temp_rec_yr2"`
	MinTempRecYr3   int     `gorm:"column:min_temp_rec_yr3"`
	PrecipMean      float64 `gorm:"column:precip_mean"`
	PrecipDayMax    float64 `gorm:"column:precip_day_max"`
	PrecipDayMaxYr1 int     `gorm:"column:precip_day_max_yr1"`
	PrecipDayMaxYr2 int     `gorm:"column:precip_day_max_yr2"`
	PrecipDayMaxYr3 int     `gorm:"column:precip_day_max_yr3"`
	SnowMean        float64 `gorm:"column:snow_mean"`
	SnowDayMax      float64 `gorm:"column:snow_day_max"`
	SnowDayMaxYr1   int     `gorm:"column:snow_day_max_yr1"`
	SnowDayMaxYr2   int     `gorm:"column:snow_day_max_yr2"`
	SnowDayMaxYr3   int     `gorm:"column:snow_day_max_yr3"`
	SnowGroundMean  float64 `gorm:"column:snow_ground_mean"`
	HeatDayMean     int     `gorm:"column:heat_day_mean"`
	CoolDayMean     int     `gorm:"column:cool_day_mean"`
}

func (DayClimateNorm) TableName() string {
	return DayClimateNormTable
}

// MonthClimateNorm holds the temperature records for a month, season or
// year. The record dates are nullable.
type MonthClimateNorm struct {
	StationID      int         `gorm:"primaryKey;column:station_id"`
	MonthOfYear    int         `gorm:"primaryKey;column:month_of_year"`
	PeriodType     int         `gorm:"primaryKey;column:period_type"`
	MaxTempRecord  int         `gorm:"column:max_temp_record"`
	DayMaxTempRec1 pgtype.Date `gorm:"column:day_max_temp_rec1;type:date"`
	DayMaxTempRec2 pgtype.Date `gorm:"column:day_max_temp_rec2;type:date"`
	DayMaxTempRec3 pgtype.Date `gorm:"column:day_max_temp_rec3;type:date"`
	MinTempRecord  int         `gorm:"column:min_temp_record"`
	DayMinTempRec1 pgtype.Date `gorm:"column:day_min_temp_rec1;type:date"`
	DayMinTempRec2 pgtype.Date `gorm:"column:day_min_temp_rec2;type:date"`
	DayMinTempRec3 pgtype.Date `gorm:"column:day_min_temp_rec3;type:date"`
}

func (MonthClimateNorm) TableName() string {
	return MonthClimateNormTable
}

// ClimatePeriod is the span of years the normals and records cover.
type ClimatePeriod struct {
	StationID   int `gorm:"primaryKey;column:station_id" json:"station_id"`
	NormalStart int `gorm:"column:normal_start" json:"normal_start"`
	NormalEnd   int `gorm:"column:normal_end" json:"normal_end"`
	RecordStart int `gorm:"column:record_start" json:"record_start"`
	RecordEnd   int `gorm:"column:record_end" json:"record_end"`
}

func (ClimatePeriod) TableName() string {
	return ClimatePeriodTable
}
