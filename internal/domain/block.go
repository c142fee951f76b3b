package domain

import "time"

type BlockType string

const (
	BlockTypeText         BlockType = "text"
	BlockTypeHeading1     BlockType = "heading1"
	BlockTypeHeading2     BlockType = "heading2"
	BlockTypeHeading3     BlockType = "heading3"
	BlockTypeHeading4     BlockType = "heading4"
	BlockTypeHeading5     BlockType = "heading5"
	BlockTypeHeading6     BlockType = "heading6"
	BlockTypeBulletedList BlockType = "bulletedList"
	BlockTypeNumberedList BlockType = "numberedList"
	BlockTypeTodoList     BlockType = "todoList"
	BlockTypeToggleList   BlockType = "toggleList"
	BlockTypeCallout      BlockType = "callout"
	BlockTypeQuote        BlockType = "quote"
	BlockTypeTable        BlockType = "table"
	BlockTypeDivider      BlockType = "divider"
	BlockTypePageLink     BlockType = "pageLink"
)

// BlockTypes lists every supported block type.
var BlockTypes = []BlockType{
	BlockTypeText,
	BlockTypeHeading1, BlockTypeHeading2, BlockTypeHeading3,
	BlockTypeHeading4, BlockTypeHeading5, BlockTypeHeading6,
	BlockTypeBulletedList, BlockTypeNumberedList, BlockTypeTodoList, BlockTypeToggleList,
	BlockTypeCallout, BlockTypeQuote, BlockTypeTable, BlockTypeDivider, BlockTypePageLink,
}

// Valid reports whether t is one of BlockTypes.
func (t BlockType) Valid() bool {
	for _, bt := range BlockTypes {
		if bt == t {
			return true
		}
	}
	return false
}

const (
	MinHeadingLevel = 1
	MaxHeadingLevel = 6
)

type Block struct {
	ID        string    `json:"id"`
	PageID    string    `json:"pageId"`
	Type      BlockType `json:"type"`
	Content   string    `json:"content"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`

	// Type-specific attributes; nil when never set.
	HeadingLevel *int    `json:"headingLevel,omitempty"`
	Checked      *bool   `json:"checked,omitempty"`
	Expanded     *bool   `json:"expanded,omitempty"`
	CalloutIcon  *string `json:"calloutIcon,omitempty"`
	TableData    *string `json:"tableData,omitempty"` // serialized table payload
}

func (b *Block) Position() int { return b.Order }

func (b *Block) SetPosition(pos int) { b.Order = pos }

func (b *Block) EntityID() string { return b.ID }

func (b *Block) Kind() EntityKind { return KindBlock }

// Clone returns a deep copy so callers never alias store-owned state.
func (b *Block) Clone() *Block {
	c := *b
	if b.HeadingLevel != nil {
		v := *b.HeadingLevel
		c.HeadingLevel = &v
	}
	if b.Checked != nil {
		v := *b.Checked
		c.Checked = &v
	}
	if b.Expanded != nil {
		v := *b.Expanded
		c.Expanded = &v
	}
	if b.CalloutIcon != nil {
		v := *b.CalloutIcon
		c.CalloutIcon = &v
	}
	if b.TableData != nil {
		v := *b.TableData
		c.TableData = &v
	}
	return &c
}
