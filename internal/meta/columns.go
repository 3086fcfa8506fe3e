package meta

// TypeClass groups vardef types by how they are stored.
type TypeClass int

const (
	ClassID TypeClass = iota + 1
	ClassString
	ClassText
	ClassInt
	ClassBool
	ClassDecimal
	ClassFloat
	ClassDate
	ClassDateTime
	ClassTime
)

// typeClasses maps every vardef type the installer can store to its class.
var typeClasses = map[string]TypeClass{
	"id":                 ClassID,
	"char":               ClassString,
	"varchar":            ClassString,
	"name":               ClassString,
	"user_name":          ClassString,
	"assigned_user_name": ClassString,
	"enum":               ClassString,
	"dynamicenum":        ClassString,
	"parent_type":        ClassString,
	"phone":              ClassString,
	"url":                ClassString,
	"email":              ClassString,
	"encrypt":            ClassString,
	"password":           ClassString,
	"relate":             ClassString,
	"multienum":          ClassText,
	"text":               ClassText,
	"longtext":           ClassText,
	"html":               ClassText,
	"int":                ClassInt,
	"integer":            ClassInt,
	"long":               ClassInt,
	"tinyint":            ClassInt,
	"short":              ClassInt,
	"bool":               ClassBool,
	"decimal":            ClassDecimal,
	"currency":           ClassDecimal,
	"double":             ClassFloat,
	"float":              ClassFloat,
	"date":               ClassDate,
	"datetime":           ClassDateTime,
	"datetimecombo":      ClassDateTime,
	"time":               ClassTime,
}

// ClassOf returns the storage class of a vardef type.
func ClassOf(typ string) (TypeClass, bool) {
	c, ok := typeClasses[typ]
	return c, ok
}

// NonDBTypes are never stored, whatever their source says.
var NonDBTypes = map[string]bool{
	"link": true,
}
