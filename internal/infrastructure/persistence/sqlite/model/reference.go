package model

type Department struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string  `gorm:"column:name;type:text;not null;uniqueIndex"`
	Description *string `gorm:"column:description;type:text"`
}

func (Department) TableName() string {
	return "departments"
}

type Location struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string  `gorm:"column:name;type:text;not null;uniqueIndex"`
	Description *string `gorm:"column:description;type:text"`
}

func (Location) TableName() string {
	return "locations"
}
