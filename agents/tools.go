// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"encoding/json"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

// Tool types understood by the service.
const (
	ToolTypeFunction        = "function"
	ToolTypeFileSearch      = "file_search"
	ToolTypeCodeInterpreter = "code_interpreter"
	ToolTypeBingGrounding   = "bing_grounding"
	ToolTypeAzureAISearch   = "azure_ai_search"
	ToolTypeOpenAPI         = "openapi"
	ToolTypeConnectedAgent  = "connected_agent"
)

// ToolDefinition declares a tool on an agent or run. Only the field matching
// Type is populated.
type ToolDefinition struct {
	Type           string                 `json:"type"`
	Function       *FunctionDefinition    `json:"function,omitempty"`
	FileSearch     *FileSearchOptions     `json:"file_search,omitempty"`
	BingGrounding  *BingGroundingOptions  `json:"bing_grounding,omitempty"`
	OpenAPI        *OpenAPIDefinition     `json:"openapi,omitempty"`
	ConnectedAgent *ConnectedAgentOptions `json:"connected_agent,omitempty"`
}

// FunctionDefinition describes a client-side function.
type FunctionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// FileSearchOptions tunes the file_search tool.
type FileSearchOptions struct {
	MaxNumResults int `json:"max_num_results,omitempty"`
}

// BingGroundingOptions points the bing_grounding tool at a project connection.
type BingGroundingOptions struct {
	SearchConfigurations []BingSearchConfiguration `json:"search_configurations"`
}

// BingSearchConfiguration is one Bing connection with optional market settings.
type BingSearchConfiguration struct {
	ConnectionID string `json:"connection_id"`
	Market       string `json:"market,omitempty"`
	SetLang      string `json:"set_lang,omitempty"`
	Count        int    `json:"count,omitempty"`
	Freshness    string `json:"freshness,omitempty"`
}

// OpenAPIDefinition exposes an OpenAPI 3 specification as a tool.
type OpenAPIDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Spec        json.RawMessage `json:"spec"`
	Auth        OpenAPIAuth     `json:"auth"`
}

// OpenAPIAuth selects how the service authenticates to the OpenAPI endpoint.
type OpenAPIAuth struct {
	Type           string          `json:"type"`
	SecurityScheme json.RawMessage `json:"security_scheme,omitempty"`
}

// ConnectedAgentOptions delegates to another agent.
type ConnectedAgentOptions struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FunctionTools declares client-side tools for an agent.
func FunctionTools(tools ...af.Tool) []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, ToolDefinition{
			Type: ToolTypeFunction,
			Function: &FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// FileSearchTool declares the hosted file_search tool. A zero maxResults uses
// the service default.
func FileSearchTool(maxResults int) ToolDefinition {
	td := ToolDefinition{Type: ToolTypeFileSearch}
	if maxResults > 0 {
		td.FileSearch = &FileSearchOptions{MaxNumResults: maxResults}
	}
	return td
}

// CodeInterpreterTool declares the hosted code_interpreter tool.
func CodeInterpreterTool() ToolDefinition {
	return ToolDefinition{Type: ToolTypeCodeInterpreter}
}

// BingGroundingTool declares Bing grounding through a project connection.
func BingGroundingTool(connectionID string) ToolDefinition {
	return ToolDefinition{
		Type: ToolTypeBingGrounding,
		BingGrounding: &BingGroundingOptions{
			SearchConfigurations: []BingSearchConfiguration{{ConnectionID: connectionID}},
		},
	}
}

// AzureAISearchTool declares the azure_ai_search tool. The index itself is
// configured through [ToolResources.AzureAISearch].
func AzureAISearchTool() ToolDefinition {
	return ToolDefinition{Type: ToolTypeAzureAISearch}
}

// OpenAPITool declares an anonymous OpenAPI tool from a specification document.
func OpenAPITool(name, description string, spec json.RawMessage) ToolDefinition {
	return ToolDefinition{
		Type: ToolTypeOpenAPI,
		OpenAPI: &OpenAPIDefinition{
			Name:        name,
			Description: description,
			Spec:        spec,
			Auth:        OpenAPIAuth{Type: "anonymous"},
		},
	}
}

// ConnectedAgentTool lets an agent hand work to another agent.
func ConnectedAgentTool(agentID, name, description string) ToolDefinition {
	return ToolDefinition{
		Type: ToolTypeConnectedAgent,
		ConnectedAgent: &ConnectedAgentOptions{
			ID:          agentID,
			Name:        name,
			Description: description,
		},
	}
}

// ToolResources supplies the data hosted tools operate on.
type ToolResources struct {
	CodeInterpreter *CodeInterpreterResource `json:"code_interpreter,omitempty"`
	FileSearch      *FileSearchResource      `json:"file_search,omitempty"`
	AzureAISearch   *AzureAISearchResource   `json:"azure_ai_search,omitempty"`
}

// CodeInterpreterResource lists files available to the code interpreter.
type CodeInterpreterResource struct {
	FileIDs []string `json:"file_ids,omitempty"`
}

// FileSearchResource lists vector stores searched by file_search.
type FileSearchResource struct {
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
}

// AzureAISearchResource lists the search indexes used by azure_ai_search.
type AzureAISearchResource struct {
	Indexes []AISearchIndex `json:"indexes"`
}

// AISearchIndex is one Azure AI Search index behind a project connection.
type AISearchIndex struct {
	ConnectionID string `json:"index_connection_id"`
	IndexName    string `json:"index_name"`
	QueryType    string `json:"query_type,omitempty"`
	TopK         int    `json:"top_k,omitempty"`
	Filter       string `json:"filter,omitempty"`
}
