package spclient

import "encoding/json"

// OData field selectors shared by locator and transfer queries.
const (
	webFields    = `Id,Title,Url,WebTemplate`
	listFields   = `Id,Title,Description,Hidden,ItemCount,BaseTemplate,RootFolder/ServerRelativeUrl`
	folderFields = `UniqueId,Name,ServerRelativeUrl,ItemCount`
	fileFields   = `UniqueId,Name,ServerRelativeUrl,Length,TimeCreated,TimeLastModified`
)

// Payload structs for decoding gosip's Normalized() response bytes.

type webInfoJSON struct {
	Id          string `json:"Id"`
	Title       string `json:"Title"`
	Url         string `json:"Url"`
	WebTemplate string `json:"WebTemplate"`
}

type listInfoJSON struct {
	Id           string `json:"Id"`
	Title        string `json:"Title"`
	Description  string `json:"Description"`
	Hidden       bool   `json:"Hidden"`
	ItemCount    int    `json:"ItemCount"`
	BaseTemplate int    `json:"BaseTemplate"`
	RootFolder   struct {
		ServerRelativeUrl string `json:"ServerRelativeUrl"`
	} `json:"RootFolder"`
}

type folderInfoJSON struct {
	UniqueId          string `json:"UniqueId"`
	Name              string `json:"Name"`
	ServerRelativeUrl string `json:"ServerRelativeUrl"`
	ItemCount         int    `json:"ItemCount"`
}

type fileInfoJSON struct {
	UniqueId          string `json:"UniqueId"`
	Name              string `json:"Name"`
	ServerRelativeUrl string `json:"ServerRelativeUrl"`
	// Length is a json.Number: verbose OData serializes Int64 fields as
	// strings, nometadata as numbers.
	Length           json.Number `json:"Length"`
	TimeCreated      string      `json:"TimeCreated"`
	TimeLastModified string      `json:"TimeLastModified"`
}
