package models

// Category 消费类别，名称不要求唯一
type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:100;not null"`
}

func (Category) TableName() string {
	return "categories"
}

// DefaultCategories 空库初始化时写入的类别
func DefaultCategories() []string {
	return []string{
		"Food",
		"Transport",
		"Shopping",
		"Entertainment",
		"Health",
		"Education",
		"Housing",
		"Utilities",
		"Other",
	}
}
