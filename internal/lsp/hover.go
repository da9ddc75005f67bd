package lsp

import (
	"encoding/json"
	"strings"
)

func (s *Server) handleHover(msg *rpcMessage) error {
	var params hoverParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, -32602, "invalid params")
	}
	content, ok := s.documentContent(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	word := wordAt(content, params.Position)
	if word == "" {
		return s.sendResponse(msg.ID, nil)
	}
	doc, ok := hoverDocs[strings.ToLower(word)]
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, hover{
		Contents: markupContent{Kind: "markdown", Value: doc},
	})
}

// wordAt returns the identifier under pos, or "" when the position does not
// touch one.
func wordAt(text string, pos position) string {
	offset := offsetForPosition(text, pos)
	if offset > len(text) {
		offset = len(text)
	}
	isWord := func(b byte) bool {
		return b == '_' ||
			(b >= 'a' && b <= 'z') ||
			(b >= 'A' && b <= 'Z') ||
			(b >= '0' && b <= '9')
	}
	start := offset
	for start > 0 && isWord(text[start-1]) {
		start--
	}
	end := offset
	for end < len(text) && isWord(text[end]) {
		end++
	}
	if start == end {
		return ""
	}
	return text[start:end]
}

// hoverDocs maps lowercased ASP and VBScript keywords to markdown
// documentation shown on hover.
var hoverDocs = map[string]string{
	"response":    "**Response** Object\n\nThe ASP Response object is used to send output to the client.\n\nCommon methods:\n- Response.Write(string) - Writes content to the page\n- Response.End() - Ends the response\n- Response.Redirect(url) - Redirects to another URL",
	"request":     "**Request** Object\n\nThe ASP Request object is used to get information from the client.\n\nCommon properties:\n- Request.QueryString(name) - Gets query string values\n- Request.Form(name) - Gets form values\n- Request.Cookies(name) - Gets cookie values\n- Request.ServerVariables(name) - Gets server environment variables",
	"session":     "**Session** Object\n\nThe ASP Session object is used to store information for a user session.\n\nCommon methods and properties:\n- Session(name) - Gets or sets a session variable\n- Session.Timeout - Gets or sets the timeout period\n- Session.Abandon - Destroys a session",
	"application": "**Application** Object\n\nThe ASP Application object is used to store information for the entire application.\n\nCommon methods and properties:\n- Application(name) - Gets or sets an application variable\n- Application.Lock - Locks application variables for writing\n- Application.Unlock - Unlocks application variables",
	"server":      "**Server** Object\n\nThe ASP Server object is used to access server properties and methods.\n\nCommon methods:\n- Server.CreateObject(progID) - Creates an instance of a COM object\n- Server.MapPath(path) - Maps a virtual path to a physical path\n- Server.HTMLEncode(string) - Encodes HTML special characters\n- Server.URLEncode(string) - Encodes URL special characters",
	"dim":         "**Dim** Statement\n\nUsed to declare variables.\n\nExample:\n```vb\nDim name, age, isActive\nDim users(10)  ' Array with 11 elements (0-10)\n```",
	"if":          "**If...Then...Else** Statement\n\nConditional execution structure.\n\nExample:\n```vb\nIf condition Then\n   ' Code to execute when condition is true\nElseIf anotherCondition Then\n   ' Code to execute when anotherCondition is true\nElse\n   ' Code to execute when all conditions are false\nEnd If\n```",
	"for":         "**For...Next** Loop\n\nRepeating code a specific number of times.\n\nExample:\n```vb\nFor i = 1 To 10\n   ' Code to execute\nNext\n```",
	"function":    "**Function** Statement\n\nDeclares a function that returns a value.\n\nExample:\n```vb\nFunction CalculateTotal(price, quantity)\n   CalculateTotal = price * quantity\nEnd Function\n```",
	"sub":         "**Sub** Statement\n\nDeclares a subroutine that doesn't return a value.\n\nExample:\n```vb\nSub DisplayMessage(message)\n   Response.Write message\nEnd Sub\n```",
	"class":       "**Class** Statement\n\nDeclares a class definition.\n\nExample:\n```vb\nClass Person\n   Private m_name\n\n   Public Property Get Name\n       Name = m_name\n   End Property\n\n   Public Property Let Name(value)\n       m_name = value\n   End Property\nEnd Class\n```",
	"option":      "**Option Explicit** Statement\n\nForces explicit declaration of all variables in a script.\n\nExample:\n```vb\nOption Explicit\n\n' Now all variables must be declared with Dim\nDim name\nname = \"John\"  ' Correct\n' age = 30  ' This would cause an error\n```",
}
